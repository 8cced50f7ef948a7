package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailgate/internal/mime"
)

// MailMessage is one message held by the gateway: an immutable envelope and
// body plus the mutable IMAP flag overlay and UID.
type MailMessage struct {
	ID         string
	MessageID  string
	From       string
	To         []string
	EnvelopeTo []string
	InReplyTo  string
	References []string
	Subject    string
	Body       string
	Headers    map[string]string
	Date       time.Time

	Flags FlagSet
	UID   uint32
}

// dateLayouts are the Date header formats accepted on parse, most common first
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParseIncoming builds a MailMessage from the SMTP envelope and the raw
// message text accumulated by DATA. Header values carrying RFC 2047
// encoded-words are decoded; the body is reduced to its best text form.
func ParseIncoming(envelopeFrom string, envelopeTo []string, raw string) *MailMessage {
	headerBlock, body := mime.SplitHeaderBody(raw)
	headers := mime.ParseHeaders(headerBlock)

	msg := &MailMessage{
		ID:         uuid.New().String(),
		From:       mime.DecodeEncodedWords(headers["from"]),
		EnvelopeTo: envelopeTo,
		InReplyTo:  strings.TrimSpace(headers["in-reply-to"]),
		References: strings.Fields(headers["references"]),
		Subject:    mime.DecodeEncodedWords(headers["subject"]),
		Headers:    headers,
		Flags:      NewFlagSet(),
	}

	if msg.From == "" {
		msg.From = envelopeFrom
	}

	msg.To = splitAddressList(mime.DecodeEncodedWords(headers["to"]))

	msg.MessageID = strings.TrimSpace(headers["message-id"])
	if msg.MessageID == "" {
		msg.MessageID = SynthesizeMessageID("localhost")
	}

	msg.Date = parseDate(headers["date"])
	msg.Body = mime.ParseMessage(headers, body).BestTextBody()

	return msg
}

// SynthesizeMessageID generates a unique Message-ID for the given host
func SynthesizeMessageID(hostname string) string {
	return "<" + uuid.New().String() + "@" + hostname + ">"
}

// Render produces the RFC 2822 wire form served over IMAP
func (m *MailMessage) Render() string {
	return m.HeaderBlock() + "\r\n" + m.BodyText()
}

// HeaderBlock renders the message headers, CRLF terminated, without the
// blank separator line.
func (m *MailMessage) HeaderBlock() string {
	var b strings.Builder

	writeHeader := func(name, value string) {
		if value != "" {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\r\n")
		}
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	writeHeader("Message-ID", m.MessageID)
	writeHeader("Date", date.Format("Mon, 2 Jan 2006 15:04:05 -0700"))
	writeHeader("From", m.From)
	writeHeader("To", strings.Join(m.To, ", "))
	writeHeader("Subject", mime.EncodeHeaderWord(m.Subject))
	writeHeader("In-Reply-To", m.InReplyTo)
	writeHeader("References", strings.Join(m.References, " "))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/plain; charset=utf-8")
	writeHeader("Content-Transfer-Encoding", "8bit")

	return b.String()
}

// BodyText returns the body with CRLF line endings
func (m *MailMessage) BodyText() string {
	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	return strings.ReplaceAll(body, "\n", "\r\n")
}

// Size returns the byte length of the rendered wire form
func (m *MailMessage) Size() int {
	return len(m.Render())
}

// InternalDate renders the message date in IMAP INTERNALDATE format
func (m *MailMessage) InternalDate() string {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	return date.Format("02-Jan-2006 15:04:05 -0700")
}

// RecipientLocalParts returns the lowercased local-parts used for routing:
// the envelope recipients when present, otherwise the header To addresses.
func (m *MailMessage) RecipientLocalParts() []string {
	recipients := m.EnvelopeTo
	if len(recipients) == 0 {
		recipients = m.To
	}

	var parts []string
	for _, r := range recipients {
		parts = append(parts, LocalPart(r))
	}
	return parts
}

// LocalPart extracts the lowercased local-part of an address, tolerating
// display-name forms like "Name <user@host>".
func LocalPart(addr string) string {
	addr = ExtractAddress(addr)
	if idx := strings.Index(addr, "@"); idx != -1 {
		addr = addr[:idx]
	}
	return strings.ToLower(strings.TrimSpace(addr))
}

// ExtractAddress reduces an address header form to the bare address
func ExtractAddress(addr string) string {
	if start := strings.Index(addr, "<"); start != -1 {
		if end := strings.Index(addr[start:], ">"); end != -1 {
			return addr[start+1 : start+end]
		}
		return addr[start+1:]
	}
	return strings.TrimSpace(addr)
}

func splitAddressList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var out []string
	for _, addr := range strings.Split(value, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now()
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}

// ThreadRoot returns the Message-ID anchoring this message's conversation
// thread: the first reference when present, else the replied-to id, else the
// message's own id.
func (m *MailMessage) ThreadRoot() string {
	if len(m.References) > 0 {
		return m.References[0]
	}
	if m.InReplyTo != "" {
		return m.InReplyTo
	}
	return m.MessageID
}

// String is a short log form
func (m *MailMessage) String() string {
	return fmt.Sprintf("%s from=%s subject=%q", m.MessageID, m.From, m.Subject)
}
