package mime

import (
	"strings"
)

// ParsedMessage represents the decoded MIME structure of a message body
type ParsedMessage struct {
	TextBody    string
	HTMLBody    string
	Attachments []*Part
	Inline      []*Part
	Parts       []*Part

	hasText bool
	hasHTML bool
}

// ParseMessage walks a message body (with its already-parsed headers) into a
// ParsedMessage. Malformed multipart input degrades to a single text part;
// this function never fails.
func ParseMessage(headers map[string]string, body string) *ParsedMessage {
	pm := &ParsedMessage{}

	contentType := headers["content-type"]
	mediaType := MediaType(contentType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := ExtractBoundary(contentType)
		raws := []string{}
		if boundary != "" {
			raws = SplitParts(body, boundary)
		}
		if len(raws) == 0 {
			// Boundary missing or no delimiters found: treat the
			// whole body as one text part
			pm.classify(parsePartWithHeaders(map[string]string{}, body))
			return pm
		}

		if mediaType == "multipart/alternative" {
			var subParts []*Part
			for _, r := range raws {
				subParts = append(subParts, ParseRawPart(r))
			}
			pm.classify(pickAlternative(subParts))
			return pm
		}

		for _, r := range raws {
			pm.classify(ParseRawPart(r))
		}
		return pm
	}

	pm.classify(parsePartWithHeaders(headers, body))
	return pm
}

// ParseRaw parses a complete raw message (header block plus body)
func ParseRaw(raw string) *ParsedMessage {
	headerBlock, body := SplitHeaderBody(raw)
	return ParseMessage(ParseHeaders(headerBlock), body)
}

func (pm *ParsedMessage) classify(part *Part) {
	pm.Parts = append(pm.Parts, part)

	switch {
	case part.IsAttachment:
		pm.Attachments = append(pm.Attachments, part)
	case part.IsInline:
		pm.Inline = append(pm.Inline, part)
	case part.MediaType == "text/plain" && !pm.hasText:
		pm.TextBody = part.Text()
		pm.hasText = true
	case part.MediaType == "text/html" && !pm.hasHTML:
		pm.HTMLBody = part.Text()
		pm.hasHTML = true
	}
}

// BestTextBody returns the plain-text body when present, otherwise the HTML
// body stripped to plain text.
func (pm *ParsedMessage) BestTextBody() string {
	if pm.hasText {
		return pm.TextBody
	}
	if pm.hasHTML {
		return StripHTML(pm.HTMLBody)
	}
	return ""
}

// HasTextBody reports whether a text/plain part was found
func (pm *ParsedMessage) HasTextBody() bool {
	return pm.hasText
}

// HasHTMLBody reports whether a text/html part was found
func (pm *ParsedMessage) HasHTMLBody() bool {
	return pm.hasHTML
}
