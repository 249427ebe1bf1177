// Package ai holds the language-model client, the digest prompt contract,
// the structured-output repair cascade and the synthesizer built on them.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNoContent marks an empty model response. Callers treat it as
// recoverable, not a crash.
var ErrNoContent = errors.New("no content in model response")

// Message is one turn of a completion request.
type Message struct {
	Role    string
	Content string
}

// Completer is the language-model contract consumed by the synthesizer.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}

// Client calls a Gemini-style generateContent endpoint.
type Client struct {
	rest    *resty.Client
	apiKey  string
	model   string
	baseURL string
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient builds a model client with a bounded request timeout.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		rest:    resty.New().SetTimeout(timeout),
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
	}
}

// Complete sends the concatenated messages and returns the model's text.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var parts []part
	for _, m := range messages {
		parts = append(parts, part{Text: m.Content})
	}
	req := generateRequest{Contents: []content{{Parts: parts}}}
	if maxTokens > 0 {
		req.GenerationConfig = &generationConfig{MaxOutputTokens: maxTokens}
	}

	var resp generateResponse
	_, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&resp).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("model error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoContent
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
