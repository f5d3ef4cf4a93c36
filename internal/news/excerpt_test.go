package news

import (
	"testing"

	"apcacli/internal/domain"
)

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Shares of <b>AAPL</b>&nbsp;rose</p>\n<p>  today </p>")
	if got != "Shares of AAPL rose today" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestExtractSymbolContent(t *testing.T) {
	raw := "<p>Markets were mixed.</p><p>Apple (AAPL) gained 2%.</p><p>Oil fell.</p>"
	if got := ExtractSymbolContent(raw, "aapl"); got != "Apple (AAPL) gained 2%." {
		t.Errorf("ExtractSymbolContent = %q", got)
	}
	if got := ExtractSymbolContent(raw, "TSLA"); got != "Markets were mixed. Apple (AAPL) gained 2%. Oil fell." {
		t.Errorf("ExtractSymbolContent fallback = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	a := domain.NewsArticle{Summary: "Summary text", Content: "<p>About MSFT here</p><p>Other</p>"}
	if got := Excerpt(a, "MSFT", 0); got != "About MSFT here" {
		t.Errorf("Excerpt with content = %q", got)
	}
	a.Content = ""
	if got := Excerpt(a, "MSFT", 0); got != "Summary text" {
		t.Errorf("Excerpt without content = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	if got := Truncate("the quick brown fox jumps", 12); got != "the quick..." {
		t.Errorf("Truncate = %q", got)
	}
}
