package web_search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/tools/web_search/brave"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
	"github.com/mohammad-safakhou/researcher/tools/web_search/serper"
	"github.com/mohammad-safakhou/researcher/tools/web_search/tavily"
)

// WebSearcher issues one query against a hosted search capability.
type WebSearcher interface {
	Discover(ctx context.Context, q string, opts models.Options) ([]models.Result, error)
}

type Provider string

const (
	TavilyProvider Provider = "tavily"
	BraveProvider  Provider = "brave"
	SerperProvider Provider = "serper"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewWebSearcher selects a provider implementation from configuration.
func NewWebSearcher(cfg config.SearchConfig) (WebSearcher, error) {
	switch Provider(cfg.Provider) {
	case TavilyProvider:
		return tavily.Search{ApiKey: cfg.TavilyAPIKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: cfg.BraveAPIKey}, nil
	case SerperProvider:
		return serper.Search{ApiKey: cfg.SerperAPIKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// FormatResults flattens provider hits into the raw text block consumed by the
// summarization step.
func FormatResults(results []models.Result) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n", i+1, r.Title, r.URL, r.Snippet)
		if r.RawContent != "" {
			b.WriteString(r.RawContent)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
