package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gradient/internal/config"
	"gradient/pkg/circuitbreaker"
	"gradient/pkg/metrics"
)

// Completer is the structured-extraction collaborator: a system instruction
// plus user content in, free text out. Implementations never interpret the
// text; parse-or-default stays with the caller.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one chat-completion call.
type Request struct {
	Operation   string // metric label: classify, extract, reply
	System      string
	User        string
	JSONMode    bool    // constrain the model to return a JSON object
	Temperature float64 // zero means the client's configured default
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint. Calls are
// guarded by a circuit breaker so a dead upstream fails fast instead of
// stalling every worker on its timeout.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	breaker     *circuitbreaker.Breaker
}

func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
	}
}

func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	started := time.Now()

	var content string
	err := c.breaker.Execute(func() error {
		var callErr error
		content, callErr = c.call(ctx, req)
		if callErr == nil {
			return nil
		}
		if retry, _ := isRetryable(callErr); !retry {
			return callErr
		}
		select {
		case <-ctx.Done():
			return callErr
		case <-time.After(500 * time.Millisecond):
		}
		content, callErr = c.call(ctx, req)
		return callErr
	})

	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.RecordAICall(req.Operation, status, time.Since(started))

	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) call(ctx context.Context, req Request) (string, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	body := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &upstreamError{status: resp.StatusCode}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ai service returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
