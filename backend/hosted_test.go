package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chapterwise/chapterwise"
)

func newHostedTestBackend(t *testing.T, handler http.Handler) *HostedBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHostedBackend(HostedConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	})
}

func chatResponse(content string) string {
	resp := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestHostedTranslateSentence(t *testing.T) {
	b := newHostedTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("messages = %#v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "German") {
			t.Errorf("system prompt should carry the language name: %q", req.Messages[0].Content)
		}
		if req.Messages[1].Content != "Hello world." {
			t.Errorf("user message = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse("  Hallo Welt.  "))
	}))

	out, err := b.TranslateSentence(context.Background(), "Hello world.", "", "de")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Hallo Welt." {
		t.Errorf("out = %q, output should be trimmed", out)
	}
}

func TestHostedModelOverride(t *testing.T) {
	b := newHostedTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q, per-call model should win", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatResponse("ok"))
	}))

	if _, err := b.TranslateSentence(context.Background(), "x", "gpt-4o", "de"); err != nil {
		t.Fatal(err)
	}
}

func TestHostedAPIError(t *testing.T) {
	b := newHostedTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limit exceeded"}}`, http.StatusTooManyRequests)
	}))

	_, err := b.TranslateSentence(context.Background(), "x", "", "de")
	var berr *chapterwise.BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if !berr.Retryable {
		t.Error("429 should be classified retryable")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"rate limit exceeded", true},
		{"request timeout", true},
		{"connection refused", true},
		{"status code: 503", true},
		{"invalid api key", false},
		{"bad request", false},
	}
	for _, tt := range tests {
		if got := isRetryableError(errors.New(tt.err)); got != tt.want {
			t.Errorf("isRetryableError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
