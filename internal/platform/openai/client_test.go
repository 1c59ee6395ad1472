package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

func outputBody(text string) map[string]any {
	return map[string]any{
		"output": []map[string]any{{
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "output_text", "text": text},
			},
		}},
	}
}

func TestGenerateJSONParsesOutputText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req responsesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text.Format["name"] != "catalog_items" {
			t.Errorf("schema name not forwarded: %v", req.Text.Format["name"])
		}
		_ = json.NewEncoder(w).Encode(outputBody(`{"items":[{"name":"Physics"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "test-key", Model: "m", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "catalog_items", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	items, ok := obj["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items: %#v", obj["items"])
	}
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(outputBody(`{"items":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "k", Model: "m", MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "n", map[string]any{}); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls: got=%d want=2", got)
	}
}

func TestGenerateJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := NewClient(logger.Nop(), Config{BaseURL: srv.URL, APIKey: "k", Model: "m", MaxRetries: 3})
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "n", map[string]any{}); err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls: got=%d want=1", got)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
