package mime

import (
	"encoding/base64"
	"strings"
)

// DecodeTransfer decodes a body according to its Content-Transfer-Encoding.
// Unknown or absent encodings (7bit, 8bit, binary) pass through unchanged.
func DecodeTransfer(body string, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return DecodeBase64(body)
	case "quoted-printable":
		return DecodeQuotedPrintable(body)
	default:
		return []byte(body)
	}
}

// DecodeBase64 decodes a base64 body, ignoring embedded whitespace.
// On decode failure the raw bytes are returned unchanged.
func DecodeBase64(body string) []byte {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, body)

	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return []byte(body)
	}
	return decoded
}

// DecodeQuotedPrintable decodes a quoted-printable body. The scan runs over
// raw bytes with an explicit cursor so multi-byte input cannot split an
// escape sequence. A trailing "=" before a line break is a soft break and
// suppresses the newline; malformed escapes are kept literally.
func DecodeQuotedPrintable(body string) []byte {
	src := []byte(body)
	out := make([]byte, 0, len(src))

	for i := 0; i < len(src); {
		c := src[i]
		if c != '=' {
			out = append(out, c)
			i++
			continue
		}

		// Soft line break: "=\r\n" or "=\n"
		if i+2 < len(src) && src[i+1] == '\r' && src[i+2] == '\n' {
			i += 3
			continue
		}
		if i+1 < len(src) && src[i+1] == '\n' {
			i += 2
			continue
		}

		// Hex escape: "=XX"
		if i+2 < len(src) {
			hi, okHi := hexValue(src[i+1])
			lo, okLo := hexValue(src[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 3
				continue
			}
		}

		// Dangling "=" at end of input or malformed escape
		out = append(out, c)
		i++
	}

	return out
}

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	}
	return 0, false
}
