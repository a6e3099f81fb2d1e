package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/ramphq/rampcore/internal/infrastructure/metrics"
)

// SignatureHeader carries the provider's HMAC-SHA256 signature of the raw
// request body.
const SignatureHeader = "X-Webhook-Signature"

// SignatureMiddleware verifies webhook payload integrity against a shared
// secret before any handler runs.
type SignatureMiddleware struct {
	secret  string
	metrics *metrics.Metrics
}

// NewSignatureMiddleware creates a new SignatureMiddleware. An empty secret
// disables verification.
func NewSignatureMiddleware(secret string, m *metrics.Metrics) *SignatureMiddleware {
	return &SignatureMiddleware{secret: secret, metrics: m}
}

// Wrap wraps an http.Handler with signature verification. The body is read
// in full and replaced so downstream decoding sees the exact signed bytes.
func (m *SignatureMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if !verifyHMAC(m.secret, body, r.Header.Get(SignatureHeader)) {
			if m.metrics != nil {
				m.metrics.SignatureFailures.Inc()
			}
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// verifyHMAC checks the hex-encoded HMAC-SHA256 of body against the shared
// secret using a constant-time compare.
func verifyHMAC(secret string, body []byte, provided string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	cleaned := strings.TrimSpace(provided)
	cleaned = strings.TrimPrefix(strings.ToLower(cleaned), "0x")
	if len(cleaned) == 0 {
		return false
	}

	got, err := hex.DecodeString(cleaned)
	if err != nil {
		return false
	}

	return hmac.Equal(expected, got)
}
