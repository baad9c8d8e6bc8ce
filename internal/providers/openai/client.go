// Package openai implements the provider contract over the OpenAI chat and
// image APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"emojigen/internal/domain"
)

const (
	providerName      = "openai"
	defaultTimeout    = 60 * time.Second
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultChatModel  = "gpt-4o-mini"
	defaultImageModel = "gpt-image-1"
)

// Options controls how the OpenAI client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	HTTPClient *http.Client
}

// Client talks to the chat/completions endpoint for prompt enhancement and the
// images/generations endpoint for rendering.
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Background     string `json:"background,omitempty"`
	OutputFormat   string `json:"output_format,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient constructs an OpenAI client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	chatModel := strings.TrimSpace(opts.ChatModel)
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		chatModel:  chatModel,
		imageModel: imageModel,
		httpClient: client,
	}, nil
}

// Name identifies this backend in logs and fallback records.
func (c *Client) Name() string {
	return providerName
}

// EnhancePrompt rewrites the description through the chat model.
func (c *Client) EnhancePrompt(ctx context.Context, messageContext, description string) (string, error) {
	userPrompt := "Request: " + description
	if messageContext != "" {
		userPrompt = "Conversation context: " + messageContext + "\n" + userPrompt
	}
	payload := chatRequest{
		Model:       c.chatModel,
		Temperature: 0.7,
		Messages: []chatMessage{
			{Role: "system", Content: "You rewrite emoji requests into one vivid, concrete image prompt. Respond with the prompt only."},
			{Role: "user", Content: userPrompt},
		},
	}

	var response chatResponse
	if err := c.invoke(ctx, "/chat/completions", payload, &response); err != nil {
		return "", err
	}
	for _, choice := range response.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("openai: %w: empty enhancement response", domain.ErrGenerationFailed)
}

// GenerateImage renders a single transparent PNG for the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload := imageRequest{
		Model:        c.imageModel,
		Prompt:       prompt,
		N:            1,
		Size:         "1024x1024",
		Background:   "transparent",
		OutputFormat: "png",
	}

	var response imageResponse
	if err := c.invoke(ctx, "/images/generations", payload, &response); err != nil {
		return nil, err
	}
	for _, item := range response.Data {
		if item.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("openai: decode image payload: %w", err)
		}
		if len(data) > 0 {
			return data, nil
		}
	}
	return nil, fmt.Errorf("openai: %w: no image content returned", domain.ErrGenerationFailed)
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: %w: %v", domain.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("openai: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("openai: %w: status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("openai: %w: status %d", domain.ErrGenerationFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}
