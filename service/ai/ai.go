package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Rates maps an assistant model name to its per-request credit cost.
type Rates struct {
	GPT4   float64
	GPT35  float64
	Gemini float64
}

// Rate resolves a model name, tolerating the alternative spellings the
// clients send. Unknown models cost 1.0.
func (r Rates) Rate(model string) float64 {
	switch strings.ToLower(model) {
	case "openai-gpt4":
		return r.GPT4
	case "openai-gpt3.5", "openai-gpt35":
		return r.GPT35
	case "gemini", "google-gemini":
		return r.Gemini
	default:
		return 1.0
	}
}

// Client calls the external model endpoint. The call is opaque: prompt in,
// text out. With no endpoint configured it answers with a stub so the rest
// of the flow (credits, persistence, broadcast) stays exercisable.
type Client struct {
	endpoint string
	apiKey   string
	httpc    *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

type completeRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type completeResponse struct {
	Text string `json:"text"`
}

// Complete runs one model request and returns the response text.
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.endpoint == "" {
		return fmt.Sprintf("AI (%s): this is a response to %q", model, prompt), nil
	}

	body, err := json.Marshal(completeRequest{Model: model, Prompt: prompt})
	if err != nil {
		return "", errors.Wrap(err, "marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "model call")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Errorf("model call status=%d body=%s", resp.StatusCode, b)
	}
	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return out.Text, nil
}
