package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

const maxCompletionTokens = 800

// ItineraryClient asks a chat-completion model for an itinerary.
type ItineraryClient struct {
	client *openai.Client
	model  string
}

func NewItineraryClient(apiKey, model, baseURL string, hc *http.Client) *ItineraryClient {
	if apiKey == "" {
		return &ItineraryClient{model: model}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = hc
	return &ItineraryClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// Generate sends prompt as a single user message and returns the first
// choice's content.
func (c *ItineraryClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
