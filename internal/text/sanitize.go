// Package text provides text normalization for stored content and rendered
// category descriptions.
package text

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTagsRegex         = regexp.MustCompile(`(?s)<[^>]*>`)
	controlCharsRegex     = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	multipleNewlinesRegex = regexp.MustCompile(`\n{3,}`)
)

func normalizeLineWhitespace(line string) string {
	var b strings.Builder

	var space bool

	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')

				space = true
			}
		default:
			b.WriteRune(r)

			space = false
		}
	}

	return strings.TrimSpace(b.String())
}

// StripHTML removes markup, decodes HTML entities, and collapses whitespace.
// Used when a category description authored in the CMS is rendered into a
// plain chat message.
func StripHTML(input string) string {
	if input == "" {
		return ""
	}

	s := strings.ReplaceAll(input, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = htmlTagsRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	return Sanitize(s)
}

// Sanitize normalizes text: line endings, control characters, and runs of
// whitespace. Stored post content and questionnaire answers go through here.
func Sanitize(input string) string {
	if input == "" {
		return ""
	}

	s := strings.ReplaceAll(input, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = controlCharsRegex.ReplaceAllString(s, " ")

	parts := strings.Split(s, "\n")
	for i := range parts {
		parts[i] = normalizeLineWhitespace(parts[i])
	}

	s = strings.Join(parts, "\n")
	s = multipleNewlinesRegex.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
