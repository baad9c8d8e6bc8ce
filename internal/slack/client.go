// Package slack is a thin client for the handful of Web API methods the
// delivery service needs: file upload, message posting, ephemeral posting,
// and opening a direct-message channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"emojigen/internal/domain"
)

const (
	defaultBaseURL = "https://slack.com/api"
	defaultTimeout = 30 * time.Second
)

// Options controls how the Slack client is configured.
type Options struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client invokes the Slack Web API. Every method call is fallible with
// Slack's boolean ok + error-reason envelope, surfaced as ErrDelivery.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// FileRef identifies an uploaded file.
type FileRef struct {
	ID  string
	URL string
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type uploadResponse struct {
	envelope
	File struct {
		ID        string `json:"id"`
		Permalink string `json:"permalink"`
	} `json:"file"`
}

type postMessageResponse struct {
	envelope
	TS string `json:"ts"`
}

type openConversationResponse struct {
	envelope
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

// NewClient constructs a Slack client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		token:      strings.TrimSpace(opts.Token),
		baseURL:    baseURL,
		httpClient: client,
	}, nil
}

// UploadFile attaches the bytes to the channel, threaded when threadTS is set.
// It returns a reference to the uploaded file.
func (c *Client) UploadFile(ctx context.Context, channelID, threadTS, filename string, data []byte) (*FileRef, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("slack: build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("slack: build upload form: %w", err)
	}
	_ = writer.WriteField("channels", channelID)
	_ = writer.WriteField("filename", filename)
	if threadTS != "" {
		_ = writer.WriteField("thread_ts", threadTS)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("slack: build upload form: %w", err)
	}

	var response uploadResponse
	if err := c.invoke(ctx, "files.upload", writer.FormDataContentType(), &body, &response); err != nil {
		return nil, err
	}
	return &FileRef{ID: response.File.ID, URL: response.File.Permalink}, nil
}

// PostMessage posts text to a channel, threaded when threadTS is set, and
// returns the message timestamp. Replying to a message timestamp is how a
// thread is created.
func (c *Client) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	form := url.Values{}
	form.Set("channel", channelID)
	form.Set("text", text)
	if threadTS != "" {
		form.Set("thread_ts", threadTS)
	}

	var response postMessageResponse
	if err := c.invokeForm(ctx, "chat.postMessage", form, &response); err != nil {
		return "", err
	}
	return response.TS, nil
}

// PostEphemeral posts text visible only to one user in the channel.
func (c *Client) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	form := url.Values{}
	form.Set("channel", channelID)
	form.Set("user", userID)
	form.Set("text", text)

	var response envelope
	return c.invokeForm(ctx, "chat.postEphemeral", form, &response)
}

// OpenDM opens (or reuses) a direct-message channel with the user and returns
// its channel id.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	form := url.Values{}
	form.Set("users", userID)

	var response openConversationResponse
	if err := c.invokeForm(ctx, "conversations.open", form, &response); err != nil {
		return "", err
	}
	return response.Channel.ID, nil
}

type envelopeReader interface {
	ok() (bool, string)
}

func (e envelope) ok() (bool, string) { return e.OK, e.Error }

func (c *Client) invokeForm(ctx context.Context, method string, form url.Values, out envelopeReader) error {
	body := strings.NewReader(form.Encode())
	return c.invoke(ctx, method, "application/x-www-form-urlencoded", body, out)
}

func (c *Client) invoke(ctx context.Context, method, contentType string, body io.Reader, out envelopeReader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %s: %w: %v", method, domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("slack: %s: %w: status %d", method, domain.ErrDelivery, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("slack: %s: decode response: %w", method, err)
	}
	if ok, reason := out.ok(); !ok {
		if reason == "" {
			reason = "unknown error"
		}
		return fmt.Errorf("slack: %s: %w: %s", method, domain.ErrDelivery, reason)
	}
	return nil
}
