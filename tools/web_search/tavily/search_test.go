package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammad-safakhou/researcher/tools/web_search/models"
)

func TestDiscoverParsesResults(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"results":[{"title":"T1","url":"https://a.example","content":"snippet one"},{"title":"T2","url":"https://b.example","content":"snippet two"}]}`))
	}))
	defer srv.Close()

	s := Search{ApiKey: "test-key", BaseURL: srv.URL}
	res, err := s.Discover(context.Background(), "electric bikes", models.Options{Depth: "low", IncludeRawContent: false})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].Title != "T1" || res[1].Snippet != "snippet two" {
		t.Fatalf("unexpected results: %+v", res)
	}
	if gotBody["search_depth"] != "basic" {
		t.Fatalf("expected basic depth for low setting, got %v", gotBody["search_depth"])
	}
	if gotBody["include_raw_content"] != false {
		t.Fatalf("expected include_raw_content=false, got %v", gotBody["include_raw_content"])
	}
}

func TestDiscoverFailsOnStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := Search{ApiKey: "test-key", BaseURL: srv.URL}
	if _, err := s.Discover(context.Background(), "anything", models.Options{}); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}
