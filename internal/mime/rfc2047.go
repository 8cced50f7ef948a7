package mime

import (
	"encoding/base64"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// encodedWordPattern matches RFC 2047 encoded-words: =?charset?Q|B?payload?=
var encodedWordPattern = regexp.MustCompile(`=\?([^?]+)\?([QqBb])\?([^?]*)\?=`)

// DecodeEncodedWords decodes every RFC 2047 encoded-word in a header value.
// Matches are substituted in reverse order so earlier string indices stay
// valid while the value is rewritten.
func DecodeEncodedWords(value string) string {
	matches := encodedWordPattern.FindAllStringSubmatchIndex(value, -1)
	if matches == nil {
		return value
	}

	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		charset := value[m[2]:m[3]]
		encoding := value[m[4]:m[5]]
		payload := value[m[6]:m[7]]

		var decoded []byte
		switch encoding {
		case "Q", "q":
			// Q encoding treats underscore as space before the
			// quoted-printable pass
			decoded = DecodeQuotedPrintable(strings.ReplaceAll(payload, "_", " "))
		case "B", "b":
			raw, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				continue
			}
			decoded = raw
		}

		value = value[:m[0]] + ConvertCharset(decoded, charset) + value[m[1]:]
	}

	return value
}

// ConvertCharset converts bytes in the named charset to a UTF-8 string.
// Unknown charsets and conversion failures fall back to the raw bytes.
func ConvertCharset(data []byte, charset string) string {
	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii", "ascii":
		return string(data)
	}

	enc, err := ianaindex.IANA.Encoding(strings.ToLower(charset))
	if err != nil || enc == nil {
		return string(data)
	}

	converted, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(converted)
}

// EncodeHeaderWord encodes a header value as a UTF-8 B encoded-word when it
// contains non-ASCII characters; plain ASCII passes through unchanged.
func EncodeHeaderWord(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] > 126 {
			return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(value)) + "?="
		}
	}
	return value
}
