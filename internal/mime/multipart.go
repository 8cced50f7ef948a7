package mime

import (
	"strings"
)

// Part represents one decoded MIME part
type Part struct {
	Headers          map[string]string
	ContentType      string
	MediaType        string
	Charset          string
	Filename         string
	TransferEncoding string
	Body             []byte
	IsAttachment     bool
	IsInline         bool
}

// SplitParts splits a multipart body into raw per-part strings. A line equal
// to (or prefixed by) "--boundary" starts a new part and "--boundary--" ends
// the set; text before the first delimiter is the preamble and is dropped.
func SplitParts(body, boundary string) []string {
	delimiter := "--" + boundary
	terminator := delimiter + "--"

	var parts []string
	var current []string
	inPart := false

	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimRight(line, "\r")

		if trimmed == terminator || strings.HasPrefix(trimmed, terminator) {
			if inPart && len(current) > 0 {
				parts = append(parts, strings.Join(current, "\n"))
			}
			break
		}

		if trimmed == delimiter || strings.HasPrefix(trimmed, delimiter) {
			if inPart && len(current) > 0 {
				parts = append(parts, strings.Join(current, "\n"))
			}
			current = nil
			inPart = true
			continue
		}

		if inPart {
			current = append(current, line)
		}
	}

	if inPart && len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n"))
	}

	return parts
}

// ParseRawPart parses one raw part (headers plus body) into a Part. A part
// that is itself multipart/* is reduced to its representative sub-part:
// multipart/alternative prefers text/plain then text/html, any other
// multipart kind flattens to its first sub-part.
func ParseRawPart(raw string) *Part {
	headerBlock, body := SplitHeaderBody(raw)
	headers := ParseHeaders(headerBlock)
	return parsePartWithHeaders(headers, body)
}

func parsePartWithHeaders(headers map[string]string, body string) *Part {
	contentType := headers["content-type"]
	mediaType := MediaType(contentType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := ExtractBoundary(contentType)
		if boundary != "" {
			raws := SplitParts(body, boundary)
			if len(raws) > 0 {
				var subParts []*Part
				for _, r := range raws {
					subParts = append(subParts, ParseRawPart(r))
				}
				if mediaType == "multipart/alternative" {
					return pickAlternative(subParts)
				}
				return subParts[0]
			}
		}
		// Missing or useless boundary: degrade to a single text part
		mediaType = "text/plain"
		contentType = "text/plain"
	}

	if mediaType == "" {
		mediaType = "text/plain"
	}

	transferEncoding := headers["content-transfer-encoding"]
	disposition := strings.ToLower(headers["content-disposition"])

	filename := HeaderParam(headers["content-disposition"], "filename")
	if filename == "" {
		filename = HeaderParam(contentType, "name")
	}
	filename = DecodeEncodedWords(filename)

	part := &Part{
		Headers:          headers,
		ContentType:      contentType,
		MediaType:        mediaType,
		Charset:          HeaderParam(contentType, "charset"),
		Filename:         filename,
		TransferEncoding: transferEncoding,
		Body:             DecodeTransfer(body, transferEncoding),
	}

	isText := strings.HasPrefix(mediaType, "text/")
	switch {
	case strings.Contains(disposition, "attachment"):
		part.IsAttachment = true
	case strings.Contains(disposition, "inline") && part.Filename != "":
		part.IsInline = true
	case disposition == "" && !isText && part.Filename != "":
		part.IsAttachment = true
	}

	return part
}

// pickAlternative selects the preferred part of a multipart/alternative set:
// first text/plain, else first text/html, else the first part.
func pickAlternative(parts []*Part) *Part {
	for _, p := range parts {
		if p.MediaType == "text/plain" {
			return p
		}
	}
	for _, p := range parts {
		if p.MediaType == "text/html" {
			return p
		}
	}
	return parts[0]
}

// Text returns the part body converted from its declared charset to UTF-8
func (p *Part) Text() string {
	return ConvertCharset(p.Body, p.Charset)
}
