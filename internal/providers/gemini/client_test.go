package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"emojigen/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestGenerateImageDecodesInlineData(t *testing.T) {
	t.Parallel()

	imageBytes := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key query param")
		}
		body := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"%s"}}]}}]}`, encoded)
		return jsonResponse(http.StatusOK, body), nil
	})

	data, err := client.GenerateImage(context.Background(), "a facepalm emoji")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if string(data) != string(imageBytes) {
		t.Fatalf("data = %v, want %v", data, imageBytes)
	}
}

func TestGenerateImageRateLimit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota"}}`), nil
	})

	_, err := client.GenerateImage(context.Background(), "a facepalm emoji")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestGenerateImageAPIError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error":{"code":400,"message":"bad prompt"}}`), nil
	})

	_, err := client.GenerateImage(context.Background(), "a facepalm emoji")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if !strings.Contains(err.Error(), "bad prompt") {
		t.Fatalf("error message lost API detail: %v", err)
	}
}

func TestGenerateImageNoContent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"candidates":[]}`), nil
	})

	_, err := client.GenerateImage(context.Background(), "a facepalm emoji")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestEnhancePromptReturnsFirstLine(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		body := `{"candidates":[{"content":{"parts":[{"text":"A cartoon facepalm with bold outlines\nsecond line ignored"}]}}]}`
		return jsonResponse(http.StatusOK, body), nil
	})

	got, err := client.EnhancePrompt(context.Background(), "deploy failed", "facepalm")
	if err != nil {
		t.Fatalf("EnhancePrompt returned error: %v", err)
	}
	if got != "A cartoon facepalm with bold outlines" {
		t.Fatalf("enhanced = %q", got)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("NewClient without api key succeeded")
	}
}
