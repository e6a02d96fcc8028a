package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildPayload encodes the fixed request body for prompt.
func (g *Gateway) buildPayload(prompt string) ([]byte, error) {
	payload, err := json.Marshal(completionRequest{
		Model:            g.cfg.Model,
		Messages:         []chatMessage{{Role: "user", Content: prompt}},
		Temperature:      g.cfg.Temperature,
		MaxTokens:        g.cfg.MaxTokens,
		TopP:             g.cfg.TopP,
		FrequencyPenalty: g.cfg.FrequencyPenalty,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return payload, nil
}

// post performs a single exchange with the completion endpoint and
// classifies its outcome.
func (g *Gateway) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return extractContent(body)
}

// extractContent returns choices[0].message.content from a 200 response body.
func extractContent(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", fmt.Errorf("%w: body is not valid JSON", ErrParse)
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrUnexpectedShape)
	}
	msg := parsed.Choices[0].Message
	if msg == nil || msg.Content == nil || *msg.Content == "" {
		return "", fmt.Errorf("%w: missing message content", ErrUnexpectedShape)
	}
	return *msg.Content, nil
}
