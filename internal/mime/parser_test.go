package mime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders_Folding(t *testing.T) {
	block := "Subject: a very\r\n long subject\r\nFrom: a@x\r\n"
	headers := ParseHeaders(block)

	assert.Equal(t, "a very long subject", headers["subject"])
	assert.Equal(t, "a@x", headers["from"])
}

func TestParseHeaders_KeysLowercased(t *testing.T) {
	headers := ParseHeaders("Content-Type: text/plain\r\nX-CUSTOM: 1\r\n")

	assert.Equal(t, "text/plain", headers["content-type"])
	assert.Equal(t, "1", headers["x-custom"])
}

func TestSplitHeaderBody(t *testing.T) {
	header, body := SplitHeaderBody("Subject: Hi\r\n\r\nHello")
	assert.Equal(t, "Subject: Hi", header)
	assert.Equal(t, "Hello", body)

	header, body = SplitHeaderBody("Subject: Hi\n\nHello")
	assert.Equal(t, "Subject: Hi", header)
	assert.Equal(t, "Hello", body)
}

func TestExtractBoundary(t *testing.T) {
	assert.Equal(t, "xyz", ExtractBoundary(`multipart/mixed; boundary="xyz"`))
	assert.Equal(t, "xyz", ExtractBoundary(`multipart/mixed; boundary=xyz`))
	assert.Equal(t, "xyz", ExtractBoundary(`multipart/mixed; boundary=xyz; charset=utf-8`))
	assert.Equal(t, "", ExtractBoundary(`text/plain; charset=utf-8`))
}

func TestDecodeQuotedPrintable_SoftBreak(t *testing.T) {
	decoded := DecodeQuotedPrintable("Caf=\r\nC3=A9")
	assert.Equal(t, "Café", string(decoded))

	decoded = DecodeQuotedPrintable("Caf=\nC3=A9")
	assert.Equal(t, "Café", string(decoded))
}

func TestDecodeQuotedPrintable_MalformedEscapeKeptLiteral(t *testing.T) {
	decoded := DecodeQuotedPrintable("a=ZZb")
	assert.Equal(t, "a=ZZb", string(decoded))
}

func TestDecodeBase64_EmbeddedWhitespace(t *testing.T) {
	decoded := DecodeBase64("SGVs\r\nbG8=")
	assert.Equal(t, "Hello", string(decoded))
}

func TestDecodeBase64_FallbackOnGarbage(t *testing.T) {
	decoded := DecodeBase64("not base64 at all!!!")
	assert.Equal(t, "not base64 at all!!!", string(decoded))
}

func TestDecodeTransfer_PassThroughIdempotent(t *testing.T) {
	body := "plain 7bit body, no encoding declared"

	assert.Equal(t, body, string(DecodeTransfer(body, "")))
	assert.Equal(t, body, string(DecodeTransfer(body, "7bit")))
	assert.Equal(t, body, string(DecodeTransfer(body, "8bit")))
}

func TestDecodeEncodedWords_Base64(t *testing.T) {
	decoded := DecodeEncodedWords("=?UTF-8?B?Q2Fmw6k=?=")
	assert.Equal(t, "Café", decoded)
}

func TestDecodeEncodedWords_QWithUnderscore(t *testing.T) {
	decoded := DecodeEncodedWords("=?utf-8?Q?Hello_World?=")
	assert.Equal(t, "Hello World", decoded)
}

func TestDecodeEncodedWords_Latin1(t *testing.T) {
	decoded := DecodeEncodedWords("=?ISO-8859-1?Q?Caf=E9?=")
	assert.Equal(t, "Café", decoded)
}

func TestDecodeEncodedWords_MultipleWords(t *testing.T) {
	decoded := DecodeEncodedWords("=?utf-8?Q?Hello?= and =?utf-8?Q?Goodbye?=")
	assert.Equal(t, "Hello and Goodbye", decoded)
}

func TestDecodeEncodedWords_PlainValueUntouched(t *testing.T) {
	assert.Equal(t, "Just a subject", DecodeEncodedWords("Just a subject"))
}

func TestEncodeHeaderWord_RoundTrip(t *testing.T) {
	encoded := EncodeHeaderWord("Café réservé")
	require.NotEqual(t, "Café réservé", encoded)
	assert.Equal(t, "Café réservé", DecodeEncodedWords(encoded))

	assert.Equal(t, "plain ascii", EncodeHeaderWord("plain ascii"))
}

func TestParseMessage_MultipartAlternativePrefersPlain(t *testing.T) {
	headers := map[string]string{
		"content-type": `multipart/alternative; boundary="b1"`,
	}
	body := "--b1\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--b1\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--b1--\r\n"

	pm := ParseMessage(headers, body)

	require.True(t, pm.HasTextBody())
	assert.Contains(t, pm.TextBody, "plain version")
	assert.Equal(t, pm.TextBody, pm.BestTextBody())
	assert.NotContains(t, pm.BestTextBody(), "html version")
}

func TestParseMessage_HTMLOnlyFallsBackToStrippedHTML(t *testing.T) {
	headers := map[string]string{"content-type": "text/html"}
	pm := ParseMessage(headers, "<p>Hello &amp; goodbye</p>")

	require.False(t, pm.HasTextBody())
	require.True(t, pm.HasHTMLBody())
	assert.Equal(t, "Hello & goodbye", pm.BestTextBody())
}

func TestParseMessage_MixedWithAttachment(t *testing.T) {
	headers := map[string]string{
		"content-type": `multipart/mixed; boundary=b2`,
	}
	body := "--b2\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attached\r\n" +
		"--b2\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"doc.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0=\r\n" +
		"--b2--\r\n"

	pm := ParseMessage(headers, body)

	require.Len(t, pm.Attachments, 1)
	assert.Equal(t, "doc.pdf", pm.Attachments[0].Filename)
	assert.Equal(t, "%PDF-", string(pm.Attachments[0].Body))
	assert.Contains(t, pm.TextBody, "see attached")
}

func TestParseMessage_InlinePart(t *testing.T) {
	headers := map[string]string{
		"content-type": `multipart/mixed; boundary=b3`,
	}
	body := "--b3\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-Disposition: inline; filename=\"logo.png\"\r\n" +
		"\r\n" +
		"fakepng\r\n" +
		"--b3--\r\n"

	pm := ParseMessage(headers, body)

	require.Len(t, pm.Inline, 1)
	assert.Equal(t, "logo.png", pm.Inline[0].Filename)
	assert.True(t, pm.Inline[0].IsInline)
}

func TestParseMessage_MissingBoundaryDegradesToText(t *testing.T) {
	headers := map[string]string{"content-type": "multipart/mixed"}
	pm := ParseMessage(headers, "just some body text")

	assert.Equal(t, "just some body text", pm.BestTextBody())
}

func TestParseMessage_NestedMultipartFlattens(t *testing.T) {
	headers := map[string]string{
		"content-type": `multipart/mixed; boundary=outer`,
	}
	body := "--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"nested plain\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<b>nested html</b>\r\n" +
		"--inner--\r\n" +
		"--outer--\r\n"

	pm := ParseMessage(headers, body)

	assert.Contains(t, pm.BestTextBody(), "nested plain")
}

func TestStripHTML(t *testing.T) {
	html := "<div>line one</div><p>line two</p><br>line three<script>x</script>" +
		"&lt;tag&gt; &quot;q&quot; &#39;a&#39;&nbsp;end"
	text := StripHTML(html)

	assert.Contains(t, text, "line one\n")
	assert.Contains(t, text, "line two\n")
	assert.Contains(t, text, `<tag> "q" 'a' end`)
	assert.NotContains(t, text, "<div>")
}

func TestStripHTML_CollapsesBlankRuns(t *testing.T) {
	text := StripHTML("a<br><br><br><br>b")
	assert.Equal(t, "a\n\nb", text)
}

func TestConvertCharset_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, "abc", ConvertCharset([]byte("abc"), "x-no-such-charset"))
}
