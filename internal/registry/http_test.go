package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/skills/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "testing" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("sort"); got != "relevance" {
			t.Errorf("unexpected sort %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"owner":"acme","repo":"devtools","name":"test-runner","display_name":"Test Runner",
			 "description":"Run tests","downloads":1200,"updated_at":"2026-08-01T00:00:00Z"},
			{"owner":"acme","repo":"devtools","name":"linter","downloads":10}
		]`))
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{BaseURL: srv.URL, Token: "tok"})
	records, err := c.Search(context.Background(), "testing", SortRelevance, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID.String() != "acme/devtools/test-runner" {
		t.Fatalf("unexpected id: %s", records[0].ID)
	}
	if records[0].UpdatedAt.IsZero() {
		t.Fatal("expected parsed timestamp")
	}
	// display_name falls back to name when omitted.
	if records[1].DisplayName != "linter" {
		t.Fatalf("unexpected display name: %q", records[1].DisplayName)
	}
}

func TestHTTPClient_EmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	records, err := c.Browse(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestHTTPClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), "x", SortRelevance, 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// Transport failure is also an outage.
	srv.Close()
	if _, err := c.Search(context.Background(), "x", SortRelevance, 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after close, got %v", err)
	}
}

func TestHTTPClient_ClientErrorIsNotUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTP(HTTPConfig{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "x", SortRelevance, 1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("4xx must not map to ErrUnavailable: %v", err)
	}
}
