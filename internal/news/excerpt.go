// Package news condenses article bodies for terminal display.
package news

import (
	"html"
	"regexp"
	"strings"

	"apcacli/internal/domain"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML content.
// Falls back to full stripped HTML if no paragraphs mention the symbol.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}

// Excerpt returns the text to show for an article: the paragraphs of its
// body that mention symbol, else its summary. Results longer than max runes
// are cut at a word boundary and suffixed with "...". max <= 0 disables
// truncation.
func Excerpt(a domain.NewsArticle, symbol string, max int) string {
	var body string
	switch {
	case a.Content != "" && symbol != "":
		body = ExtractSymbolContent(a.Content, symbol)
	case a.Content != "":
		body = StripHTML(a.Content)
	default:
		body = StripHTML(a.Summary)
	}
	return Truncate(body, max)
}

// Truncate shortens s to at most max runes, preferring a word boundary.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	cut := string(r[:max])
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}
