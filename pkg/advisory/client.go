// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package advisory talks to the free-text advisory service used for crop
// lookups and weekly watering plans.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Thermoquad/irrigator/pkg/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"

	defaultBreakerFailures = 3
	defaultBreakerTimeout  = 30 * time.Second
)

// ErrUnavailable wraps every failure to obtain text from the service:
// transport errors, non-2xx answers, empty answers and an open breaker.
var ErrUnavailable = errors.New("advisory service unavailable")

// Generator produces free-form text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options configures a Client
type Options struct {
	BaseURL string
	Model   string
	APIKey  string

	HTTPClient *http.Client

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	Logger *logger.Logger
}

// Client is a generateContent client guarded by a circuit breaker
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewClient creates a client; zero options take defaults
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: opts.BaseURL,
		model:   opts.Model,
		apiKey:  opts.APIKey,
		http:    opts.HTTPClient,
		log:     logger.OrNop(opts.Logger),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}

	fails := opts.BreakerFailures
	if fails == 0 {
		fails = defaultBreakerFailures
	}
	timeout := opts.BreakerTimeout
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "advisory",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= fails
		},
		// A caller giving up is not a service failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Infow("advisory_breaker_state", "from", from.String(), "to", to.String())
		},
	})
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and returns the first candidate's text.
// Context cancellation is returned as is; every other failure wraps ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: missing api key", ErrUnavailable)
	}

	requestID := uuid.NewString()
	res, err := c.cb.Execute(func() (any, error) {
		return c.generate(ctx, prompt)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warnw("advisory_unavailable", "request_id", requestID, "err", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := res.(string)
	c.log.Debugw("advisory_generated", "request_id", requestID, "chars", len(text))
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("advisory status %d: %s", resp.StatusCode, string(b))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode advisory response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 || out.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.New("empty advisory response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
