package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIncoming_Basic(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"To: counsel@impress.local\r\n" +
		"Subject: Hi\r\n" +
		"Message-ID: <m1@example.com>\r\n" +
		"Date: Mon, 2 Jan 2023 10:00:00 +0000\r\n" +
		"\r\n" +
		"Hello\r\n"

	msg := ParseIncoming("alice@example.com", []string{"counsel@impress.local"}, raw)

	assert.Equal(t, "alice@example.com", msg.From)
	assert.Equal(t, []string{"counsel@impress.local"}, msg.To)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "<m1@example.com>", msg.MessageID)
	assert.Equal(t, 2023, msg.Date.Year())
	assert.Equal(t, "Hello", strings.TrimRight(msg.Body, "\r\n"))
	assert.NotEmpty(t, msg.ID)
}

func TestParseIncoming_MessageIDSynthesized(t *testing.T) {
	raw := "From: a@x\r\nSubject: s\r\n\r\nbody"
	msg := ParseIncoming("a@x", nil, raw)

	require.NotEmpty(t, msg.MessageID)
	assert.True(t, strings.HasPrefix(msg.MessageID, "<"))
	assert.True(t, strings.HasSuffix(msg.MessageID, ">"))
}

func TestParseIncoming_EncodedSubject(t *testing.T) {
	raw := "From: a@x\r\nSubject: =?UTF-8?B?Q2Fmw6k=?=\r\n\r\nbody"
	msg := ParseIncoming("a@x", nil, raw)

	assert.Equal(t, "Café", msg.Subject)
}

func TestParseIncoming_Threading(t *testing.T) {
	raw := "From: a@x\r\n" +
		"In-Reply-To: <m1@x>\r\n" +
		"References: <m0@x> <m1@x>\r\n" +
		"\r\nbody"
	msg := ParseIncoming("a@x", nil, raw)

	assert.Equal(t, "<m1@x>", msg.InReplyTo)
	assert.Equal(t, []string{"<m0@x>", "<m1@x>"}, msg.References)
	assert.Equal(t, "<m0@x>", msg.ThreadRoot())
}

func TestRender_RoundTrip(t *testing.T) {
	orig := &MailMessage{
		ID:        "id-1",
		MessageID: "<m2@impress.local>",
		From:      "counsel@impress.local",
		To:        []string{"alice@example.com"},
		Subject:   "Votre café",
		Body:      "Seven bit body line one\nline two",
		Flags:     NewFlagSet(),
	}

	reparsed := ParseIncoming(orig.From, nil, orig.Render())

	assert.Equal(t, orig.Subject, reparsed.Subject)
	assert.Equal(t, orig.From, reparsed.From)
	assert.Equal(t, orig.To, reparsed.To)
	assert.Equal(t, "Seven bit body line one\r\nline two", strings.TrimRight(reparsed.Body, "\r\n"))
}

func TestResponse_ToMessage_Threading(t *testing.T) {
	orig := ParseIncoming("alice@example.com", []string{"counsel@impress.local"},
		"From: alice@example.com\r\nMessage-ID: <q1@x>\r\nReferences: <q0@x>\r\nSubject: Question\r\n\r\nbody")

	resp := &Response{From: "counsel@impress.local", Body: "Answer"}
	reply := resp.ToMessage(orig)

	assert.Equal(t, "<q1@x>", reply.InReplyTo)
	require.NotEmpty(t, reply.References)
	assert.Equal(t, "<q1@x>", reply.References[len(reply.References)-1])
	assert.Equal(t, []string{"<q0@x>", "<q1@x>"}, reply.References)
	assert.Equal(t, []string{"alice@example.com"}, reply.To)
	assert.Equal(t, "Re: Question", reply.Subject)
	assert.NotEqual(t, orig.MessageID, reply.MessageID)
}

func TestResponse_ToMessage_KeepsReSubject(t *testing.T) {
	orig := ParseIncoming("a@x", nil, "From: a@x\r\nSubject: Re: Question\r\n\r\nbody")
	reply := (&Response{From: "c@y", Body: "b"}).ToMessage(orig)

	assert.Equal(t, "Re: Question", reply.Subject)
}

func TestRecipientLocalParts_EnvelopePreferred(t *testing.T) {
	msg := &MailMessage{
		To:         []string{"Header To <other@x>"},
		EnvelopeTo: []string{"Counsel@impress.local", "intake@impress.local"},
	}

	assert.Equal(t, []string{"counsel", "intake"}, msg.RecipientLocalParts())
}

func TestRecipientLocalParts_FallsBackToHeader(t *testing.T) {
	msg := &MailMessage{To: []string{"Some One <SomeOne@x>"}}
	assert.Equal(t, []string{"someone"}, msg.RecipientLocalParts())
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "a@x", ExtractAddress("Name <a@x>"))
	assert.Equal(t, "a@x", ExtractAddress("a@x"))
	assert.Equal(t, "a@x", ExtractAddress("  a@x  "))
}

func TestFlagSet(t *testing.T) {
	fs := NewFlagSet(FlagRecent)
	fs.Add(FlagSeen)

	assert.True(t, fs.Has(FlagSeen))
	assert.True(t, fs.Has(FlagRecent))
	assert.Equal(t, "\\Seen \\Recent", fs.String())

	fs.Remove(FlagSeen)
	assert.False(t, fs.Has(FlagSeen))
}

func TestParseFlag(t *testing.T) {
	f, ok := ParseFlag(`\Seen`)
	require.True(t, ok)
	assert.Equal(t, FlagSeen, f)

	f, ok = ParseFlag(`\deleted`)
	require.True(t, ok)
	assert.Equal(t, FlagDeleted, f)

	_, ok = ParseFlag(`\NotAFlag`)
	assert.False(t, ok)
}
