package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/research/telemetry"
	"github.com/mohammad-safakhou/researcher/tools/web_fetch"
	websearch "github.com/mohammad-safakhou/researcher/tools/web_search"
	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

// Searcher executes one planned search item: run the web search, optionally
// pull readable page content, then condense everything into a short summary.
type Searcher struct {
	cfg       *config.Config
	llm       LLMProvider
	searcher  websearch.WebSearcher
	fetcher   *web_fetch.Fetcher
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewSearcher creates an item searcher. fetcher may be nil when raw page
// content is not wanted.
func NewSearcher(cfg *config.Config, llm LLMProvider, ws websearch.WebSearcher, fetcher *web_fetch.Fetcher, tele *telemetry.Telemetry) *Searcher {
	return &Searcher{
		cfg:       cfg,
		llm:       llm,
		searcher:  ws,
		fetcher:   fetcher,
		telemetry: tele,
		logger:    log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
}

func (s *Searcher) buildPrompt(item SearchItem, results string, wordLimit int) string {
	return fmt.Sprintf(`You are a research assistant. Given a search term and its web results, produce a
concise summary of the results. The summary must be 2-3 paragraphs and less
than %d words. Capture the main points. Write succinctly, no need to have
complete sentences or good grammar. This will be consumed by someone
synthesizing a report, so it is vital you capture the essence and ignore any
fluff. Do not include any additional commentary other than the summary itself.

SEARCH TERM: %s
REASON FOR SEARCH: %s

WEB RESULTS:
%s`, wordLimit, item.Query, item.Reason, results)
}

// Search runs the web search for one plan item and returns the condensed
// summary text.
func (s *Searcher) Search(ctx context.Context, item SearchItem) (string, error) {
	opts := models.Options{
		Depth:             s.cfg.Search.Depth,
		MaxResults:        s.cfg.Search.MaxResults,
		IncludeRawContent: s.cfg.Search.IncludeRawContent,
	}
	searchStart := time.Now()
	hits, err := s.searcher.Discover(ctx, item.Query, opts)
	if s.telemetry != nil {
		s.telemetry.RecordSearch(s.cfg.Search.Provider, time.Since(searchStart), err == nil, len(hits))
	}
	if err != nil {
		return "", fmt.Errorf("web search for %q: %w", item.Query, err)
	}
	if len(hits) == 0 {
		return "", fmt.Errorf("no results for %q", item.Query)
	}

	if s.fetcher != nil {
		s.enrich(ctx, hits)
	}

	model := s.cfg.LLM.Routing.ModelFor("research")
	start := time.Now()
	out, inTok, outTok, err := s.llm.GenerateWithTokens(ctx,
		s.buildPrompt(item, websearch.FormatResults(hits), s.cfg.Research.SummaryWordLimit),
		model, map[string]interface{}{"temperature": 0.3})
	if s.telemetry != nil {
		s.telemetry.RecordLLMUsage(model, inTok, outTok, s.llm.CalculateCost(inTok, outTok, model), time.Since(start), err == nil)
	}
	if err != nil {
		return "", fmt.Errorf("summarize %q: %w", item.Query, err)
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", fmt.Errorf("empty summary for %q", item.Query)
	}
	return summary, nil
}

// enrich backfills missing raw content for the top hits with readable page
// text. Fetch failures leave the snippet as is.
func (s *Searcher) enrich(ctx context.Context, hits []models.Result) {
	const maxFetches = 3
	fetched := 0
	for i := range hits {
		if fetched >= maxFetches {
			break
		}
		if hits[i].RawContent != "" || hits[i].URL == "" {
			continue
		}
		text, err := s.fetcher.Fetch(ctx, hits[i].URL)
		if err != nil {
			s.logger.Printf("fetch %s: %v", hits[i].URL, err)
			continue
		}
		hits[i].RawContent = text
		fetched++
	}
}
