package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiBackendGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("api key header = %q, want secret", got)
		}

		var req geminiRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "Ping" {
			t.Errorf("unexpected request body: %s", body)
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Po"},{"text":"ng"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGeminiBackend("secret", "gemini-test", srv.URL, srv.Client())
	got, err := g.Generate(context.Background(), "Ping")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Pong" {
		t.Errorf("Generate = %q, want Pong", got)
	}
}

func TestGeminiBackendQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g := NewGeminiBackend("secret", "", srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), "Ping")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 429 || apiErr.Status != "RESOURCE_EXHAUSTED" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !IsQuotaError(err) {
		t.Error("IsQuotaError = false, want true")
	}
}

func TestGeminiBackendNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	g := NewGeminiBackend("secret", "", srv.URL, srv.Client())
	_, err := g.Generate(context.Background(), "Ping")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("err = %v, want blocked prompt error", err)
	}
}

func TestAnthropicBackendGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		w.Write([]byte(`{"id":"m1","role":"assistant","content":[{"type":"text","text":"Hello"}]}`))
	}))
	defer srv.Close()

	a := NewAnthropicBackend("secret", "", srv.URL, srv.Client())
	got, err := a.Generate(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Hello" {
		t.Errorf("Generate = %q, want Hello", got)
	}
}

func TestAnthropicBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	a := NewAnthropicBackend("secret", "", srv.URL, srv.Client())
	_, err := a.Generate(context.Background(), "Hi")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v, want 400 API error", err)
	}
	if IsQuotaError(err) {
		t.Error("400 should not be a quota error")
	}
}

func TestNewBackend(t *testing.T) {
	if _, err := NewBackend(Config{Provider: "gemini"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewBackend(Config{Provider: "mystery", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider")
	}

	g, err := NewBackend(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, ok := g.(*GeminiBackend); !ok {
		t.Errorf("default backend = %T, want *GeminiBackend", g)
	}

	a, err := NewBackend(Config{Provider: "Anthropic", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if _, ok := a.(*AnthropicBackend); !ok {
		t.Errorf("backend = %T, want *AnthropicBackend", a)
	}
}
