package chi

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Signature headers set by the platform on every interaction request.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

const badSignatureBody = "Bad request signature"

// maxInteractionBody caps the body read before verification.
const maxInteractionBody = 1 << 20

// ParsePublicKey decodes a hex Ed25519 public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// SignatureMiddleware rejects requests whose Ed25519 signature over
// timestamp+body does not verify against publicKey. On success the verified
// bytes are put back on r.Body.
func SignatureMiddleware(publicKey ed25519.PublicKey, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
			if err != nil {
				logger.Warn("read interaction body", zap.Error(err))
				rejectSignature(w)
				return
			}

			sig, ts := r.Header.Get(HeaderSignature), r.Header.Get(HeaderTimestamp)
			if reason := verify(publicKey, sig, ts, body); reason != "" {
				logger.Warn("invalid request signature",
					zap.String("reason", reason),
					zap.String("remote_addr", r.RemoteAddr),
				)
				rejectSignature(w)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}

// verify returns an empty string when the signature is valid, otherwise the reason.
func verify(publicKey ed25519.PublicKey, sigHex, timestamp string, body []byte) string {
	if sigHex == "" || timestamp == "" {
		return "missing signature headers"
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return "signature is not hex"
	}
	if len(sig) != ed25519.SignatureSize {
		return "signature has wrong length"
	}
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(publicKey, msg, sig) {
		return "verification failed"
	}
	return ""
}

func rejectSignature(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, badSignatureBody)
}
