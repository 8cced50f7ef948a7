package mime

import (
	"regexp"
	"strings"
)

var (
	blockTagPattern  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</tr>|</li>|</h[1-6]>`)
	anyTagPattern    = regexp.MustCompile(`<[^>]*>`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	htmlEntityValues = []struct{ entity, text string }{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
	}
)

// StripHTML converts an HTML body to plain text: block-level tag closers
// become newlines, remaining tags are dropped, common entities are decoded
// and runs of blank lines collapse to at most two.
func StripHTML(html string) string {
	text := blockTagPattern.ReplaceAllString(html, "\n")
	text = anyTagPattern.ReplaceAllString(text, "")

	for _, e := range htmlEntityValues {
		text = strings.ReplaceAll(text, e.entity, e.text)
	}

	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
