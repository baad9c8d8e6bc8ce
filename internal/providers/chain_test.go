package providers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

type stubProvider struct {
	name        string
	enhanced    string
	enhanceErr  error
	image       []byte
	generateErr error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) EnhancePrompt(ctx context.Context, messageContext, description string) (string, error) {
	return s.enhanced, s.enhanceErr
}

func (s *stubProvider) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	return s.image, s.generateErr
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestChainPrimaryWins(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", image: []byte("primary-bytes")}
	secondary := &stubProvider{name: "secondary", image: []byte("secondary-bytes")}
	chain, err := NewChain(testLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("NewChain returned error: %v", err)
	}

	res, err := chain.GenerateImage(context.Background(), "a facepalm")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if res.Provider != "primary" || res.IsFallback {
		t.Fatalf("result = %+v, want primary without fallback", res)
	}
	if len(res.Attempts) != 0 {
		t.Fatalf("attempts = %d, want 0", len(res.Attempts))
	}
}

func TestChainFallsBackInOrder(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", generateErr: errors.New("rate limited")}
	secondary := &stubProvider{name: "secondary", image: []byte("secondary-bytes")}
	chain, err := NewChain(testLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("NewChain returned error: %v", err)
	}

	res, err := chain.GenerateImage(context.Background(), "a facepalm")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if res.Provider != "secondary" {
		t.Fatalf("provider = %q, want secondary", res.Provider)
	}
	if !res.IsFallback {
		t.Fatal("IsFallback = false, want true")
	}
	if res.FallbackReason == "" {
		t.Fatal("expected a fallback reason")
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Provider != "primary" {
		t.Fatalf("attempts = %+v, want one primary failure", res.Attempts)
	}
}

func TestChainExhaustionListsEveryAttempt(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", generateErr: errors.New("boom-1")}
	secondary := &stubProvider{name: "secondary", generateErr: errors.New("boom-2")}
	chain, err := NewChain(testLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("NewChain returned error: %v", err)
	}

	_, err = chain.GenerateImage(context.Background(), "a facepalm")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *ExhaustedError", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(exhausted.Attempts))
	}
	if exhausted.Attempts[0].Provider != "primary" || exhausted.Attempts[1].Provider != "secondary" {
		t.Fatalf("attempt order = %+v", exhausted.Attempts)
	}
}

func TestChainEnhanceUsesPrimaryOnly(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "primary", enhanceErr: errors.New("primary down")}
	secondary := &stubProvider{name: "secondary", enhanced: "should not be used"}
	chain, err := NewChain(testLogger(), primary, secondary)
	if err != nil {
		t.Fatalf("NewChain returned error: %v", err)
	}

	if _, err := chain.EnhancePrompt(context.Background(), "", "facepalm"); err == nil {
		t.Fatal("EnhancePrompt = nil error, want the primary's failure surfaced")
	}
}

func TestChainRequiresBackends(t *testing.T) {
	t.Parallel()
	if _, err := NewChain(testLogger()); err == nil {
		t.Fatal("NewChain with no backends succeeded")
	}
}
