package mime

import (
	"strings"
)

// SplitHeaderBody splits a raw message into its header block and body.
// The split point is the first blank line (CRLF CRLF or LF LF).
func SplitHeaderBody(raw string) (string, string) {
	if idx := strings.Index(raw, "\r\n\r\n"); idx != -1 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := strings.Index(raw, "\n\n"); idx != -1 {
		return raw[:idx], raw[idx+2:]
	}
	return raw, ""
}

// ParseHeaders parses an RFC 2822 header block into a map with lowercase keys.
// A line starting with space or tab continues the previous header value.
func ParseHeaders(block string) map[string]string {
	headers := make(map[string]string)
	lines := strings.Split(block, "\n")

	var lastKey string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		// Continuation line: append to the previous header
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey != "" {
				headers[lastKey] = headers[lastKey] + " " + strings.TrimSpace(line)
			}
			continue
		}

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(line[:colonIdx]))
		value := strings.TrimSpace(line[colonIdx+1:])
		headers[key] = value
		lastKey = key
	}

	return headers
}

// HeaderParam extracts a named parameter from a structured header value such
// as Content-Type. Both quoted and unquoted parameter forms are handled;
// unquoted values end at a semicolon, whitespace or end of string.
func HeaderParam(headerValue, param string) string {
	lower := strings.ToLower(headerValue)
	needle := param + "="

	idx := strings.Index(lower, needle)
	if idx == -1 {
		return ""
	}

	rest := headerValue[idx+len(needle):]
	if rest == "" {
		return ""
	}

	if rest[0] == '"' {
		end := strings.Index(rest[1:], `"`)
		if end == -1 {
			return rest[1:]
		}
		return rest[1 : end+1]
	}

	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if end == -1 {
		return rest
	}
	return rest[:end]
}

// MediaType returns the media type portion of a Content-Type value,
// lowercased, without parameters.
func MediaType(contentType string) string {
	mt := contentType
	if idx := strings.Index(mt, ";"); idx != -1 {
		mt = mt[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// ExtractBoundary reads the boundary parameter from a Content-Type value
func ExtractBoundary(contentType string) string {
	return HeaderParam(contentType, "boundary")
}
