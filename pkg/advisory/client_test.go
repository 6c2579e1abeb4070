// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func geminiServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/test-model:generateContent" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) != 1 || req.Contents[0].Parts[0].Text == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newTestClient(srv *httptest.Server, fails uint32) *Client {
	return NewClient(Options{
		BaseURL:         srv.URL,
		Model:           "test-model",
		APIKey:          "k",
		HTTPClient:      srv.Client(),
		BreakerFailures: fails,
		BreakerTimeout:  time.Minute,
	})
}

func TestClientGenerate(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{\"valid\":true}"}]}}]}`, nil)
	defer srv.Close()

	text, err := newTestClient(srv, 0).Generate(context.Background(), "tomato?")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if text != `{"valid":true}` {
		t.Errorf("Generate() = %q", text)
	}
}

func TestClientGenerate_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "overloaded"},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "empty text", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`},
		{name: "garbage", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := geminiServer(t, tt.status, tt.body, nil)
			defer srv.Close()

			_, err := newTestClient(srv, 0).Generate(context.Background(), "p")
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("Generate() error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestClientGenerate_MissingKey(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	if _, err := c.Generate(context.Background(), "p"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Generate() error = %v, want ErrUnavailable", err)
	}
}

func TestClientGenerate_BreakerOpens(t *testing.T) {
	var hits int32
	srv := geminiServer(t, http.StatusInternalServerError, "down", &hits)
	defer srv.Close()

	c := newTestClient(srv, 2)
	for i := 0; i < 5; i++ {
		if _, err := c.Generate(context.Background(), "p"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want ErrUnavailable", i, err)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("server hits = %d, want 2 before the breaker opened", got)
	}
}

func TestClientGenerate_CancelledIsNotUnavailable(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{}`, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv, 1).Generate(ctx, "p")
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrUnavailable) {
		t.Errorf("Generate() error = %v, want context.Canceled only", err)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var g Generator = GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo " + prompt, nil
	})
	if got, _ := g.Generate(context.Background(), "x"); got != "echo x" {
		t.Errorf("Generate() = %q", got)
	}
}
