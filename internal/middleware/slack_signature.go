package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// SignatureVersion is the Slack signing scheme version prefix.
	SignatureVersion = "v0"
	// ReplayWindow bounds how stale a signed request may be.
	ReplayWindow = 300 * time.Second

	headerTimestamp = "X-Slack-Request-Timestamp"
	headerSignature = "X-Slack-Signature"
)

// ValidSignature verifies a Slack-style request signature. It is total: every
// input, including malformed ones, maps to a boolean. The expected signature
// is "v0=" + hex(HMAC-SHA256(secret, "v0:"+timestamp+":"+body)) and the
// timestamp must be within ReplayWindow of now.
func ValidSignature(body []byte, timestamp, signature, secret string) bool {
	return validSignatureAt(body, timestamp, signature, secret, time.Now())
}

func validSignatureAt(body []byte, timestamp, signature, secret string, now time.Time) bool {
	if timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	// Compared in integer seconds with no arithmetic on ts: duration math or
	// subtraction would overflow for extreme timestamps and wrap into the
	// window.
	window := int64(ReplayWindow / time.Second)
	nowUnix := now.Unix()
	if ts < nowUnix-window || ts > nowUnix+window {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SignatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	expected := SignatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// SlackSignature rejects requests whose body is not authenticated by the
// signing secret. The body is buffered so downstream handlers can re-read it.
func SlackSignature(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "unreadable body", http.StatusBadRequest)
				return
			}
			_ = r.Body.Close()
			if len(body) == 0 {
				http.Error(w, "empty body", http.StatusBadRequest)
				return
			}
			if !ValidSignature(body, r.Header.Get(headerTimestamp), r.Header.Get(headerSignature), secret) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
