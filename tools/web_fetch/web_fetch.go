package web_fetch

import (
	"context"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Fetcher pulls readable article text from result pages. It is only used when
// the search configuration asks for raw content.
type Fetcher struct {
	Timeout  time.Duration
	MaxBytes int
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{Timeout: timeout, MaxBytes: 20_000}
}

// Fetch extracts the readable text of one page. Errors are returned to the
// caller, which treats page extraction as best-effort.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(article.TextContent)
	if f.MaxBytes > 0 && len(text) > f.MaxBytes {
		text = text[:f.MaxBytes]
	}
	return text, nil
}
