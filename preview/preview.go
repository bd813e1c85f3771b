// Package preview turns editor HTML into the two renditions the tester shows
// and sends: a sanitized HTML copy that is safe to render inline, and the
// plain-text alternative attached to outgoing mail.
package preview

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	inlinePolicy *bluemonday.Policy
	textPolicy   *bluemonday.Policy
	initOnce     sync.Once

	blockEnd   = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/h[1-6]|/li|/tr|/table)\s*>`)
	blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	spaces     = regexp.MustCompile(`[ \t]+`)
)

func initPolicies() {
	initOnce.Do(func() {
		// Email markup leans on inline styles, tables and images.
		inlinePolicy = bluemonday.UGCPolicy()
		inlinePolicy.AllowStyling()
		inlinePolicy.AllowAttrs("style").Globally()
		inlinePolicy.AllowAttrs("align", "valign", "bgcolor", "width", "height", "cellpadding", "cellspacing", "border").
			OnElements("table", "tr", "td", "th", "img")
		inlinePolicy.AllowElements("center", "font")
		inlinePolicy.AllowAttrs("color", "face", "size").OnElements("font")

		textPolicy = bluemonday.StrictPolicy()
	})
}

// Sanitize strips scripts, event handlers and other active content but keeps
// the layout and inline styling of an email.
func Sanitize(s string) string {
	initPolicies()
	return inlinePolicy.Sanitize(s)
}

// PlainText renders HTML as readable plain text: tags are removed, block
// boundaries become line breaks and entities are decoded.
func PlainText(s string) string {
	initPolicies()

	s = blockEnd.ReplaceAllString(s, "$0\n")
	s = textPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaces.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
