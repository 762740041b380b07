package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var gotAuth string
	var gotBody mail
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := Sender{ApiKey: "sg-key", BaseURL: srv.URL}
	status, err := s.Send(context.Background(), "reports@example.com", "reader@example.com", "Research report", "<h1>Hi</h1>")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if status == "" {
		t.Fatalf("expected non-empty status")
	}
	if gotAuth != "Bearer sg-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotBody.From.Email != "reports@example.com" {
		t.Fatalf("from = %q", gotBody.From.Email)
	}
	if len(gotBody.Personalizations) != 1 || len(gotBody.Personalizations[0].To) != 1 ||
		gotBody.Personalizations[0].To[0].Email != "reader@example.com" {
		t.Fatalf("unexpected personalizations: %+v", gotBody.Personalizations)
	}
	if gotBody.Subject != "Research report" {
		t.Fatalf("subject = %q", gotBody.Subject)
	}
	if len(gotBody.Content) != 1 || gotBody.Content[0].Type != "text/html" {
		t.Fatalf("unexpected content: %+v", gotBody.Content)
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := Sender{ApiKey: "bad", BaseURL: srv.URL}
	if _, err := s.Send(context.Background(), "a@b.c", "d@e.f", "s", "<p>x</p>"); err == nil {
		t.Fatalf("expected error on 401")
	}
}
