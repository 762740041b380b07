package helpers

import (
	"strings"
	"testing"
)

func TestSanitizeHTMLStrict(t *testing.T) {
	got := SanitizeHTMLStrict(`<p>hello <script>alert(1)</script>world</p>`)
	if strings.Contains(got, "<") || strings.Contains(got, "alert") {
		t.Fatalf("strict sanitize left markup: %q", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Fatalf("strict sanitize dropped text: %q", got)
	}
}

func TestSanitizeEmailHTMLKeepsFormatting(t *testing.T) {
	in := `<h1>Report</h1><p onclick="steal()">body</p><script>bad()</script><a href="javascript:evil()">x</a>`
	got := SanitizeEmailHTML(in)
	if !strings.Contains(got, "<h1>") {
		t.Fatalf("heading stripped: %q", got)
	}
	for _, bad := range []string{"script", "onclick", "javascript:"} {
		if strings.Contains(got, bad) {
			t.Fatalf("sanitized output still contains %q: %q", bad, got)
		}
	}
}

func TestMarkdownToEmailHTML(t *testing.T) {
	md := "# Findings\n\nSome *important* text.\n\n- one\n- two\n"
	got, err := MarkdownToEmailHTML(md)
	if err != nil {
		t.Fatalf("MarkdownToEmailHTML: %v", err)
	}
	for _, want := range []string{"<h1", "<em>important</em>", "<li>one</li>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in rendered HTML: %q", want, got)
		}
	}
}
