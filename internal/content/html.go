package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nhle/ghostmail/internal/model"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()

	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|tr|h[1-6]|li|table|blockquote)>`)
	listItemRe   = regexp.MustCompile(`(?i)<li[^>]*>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t\f\v]+`)
)

// HTMLToText flattens an HTML body for terminal display. Block elements
// become line breaks and every tag is stripped.
func HTMLToText(body string) string {
	if body == "" {
		return ""
	}

	body = lineBreakRe.ReplaceAllString(body, "\n")
	body = listItemRe.ReplaceAllString(body, "\n- ")

	text := html.UnescapeString(strictPolicy.Sanitize(body))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// SanitizeHTML strips scripts, handlers and other active content while
// keeping the formatting of user-generated HTML.
func SanitizeHTML(body string) string {
	return ugcPolicy.Sanitize(body)
}

// MessageBody returns the plain text of a full message, preferring the text
// part and falling back to the flattened HTML parts.
func MessageBody(m *model.FullMessage) string {
	if m == nil {
		return ""
	}
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	return HTMLToText(strings.Join(m.HTML, "\n"))
}
