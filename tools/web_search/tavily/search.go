package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

const apiURL = "https://api.tavily.com/search"

type Search struct {
	ApiKey  string
	BaseURL string // test override
}

func (s Search) Discover(ctx context.Context, q string, opts models.Options) ([]models.Result, error) {
	// https://docs.tavily.com/docs/rest-api
	depth := "basic"
	if opts.Depth == "high" {
		depth = "advanced"
	}
	payload := map[string]any{
		"query":               q,
		"search_depth":        depth,
		"max_results":         opts.DepthResults(),
		"include_raw_content": opts.IncludeRawContent,
	}
	body, _ := json.Marshal(payload)
	url := s.BaseURL
	if url == "" {
		url = apiURL
	}
	req, _ := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily status %d", resp.StatusCode)
	}
	var raw struct {
		Results []struct {
			Title      string `json:"title"`
			URL        string `json:"url"`
			Content    string `json:"content"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for _, r := range raw.Results {
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Content, RawContent: r.RawContent})
	}
	return out, nil
}
