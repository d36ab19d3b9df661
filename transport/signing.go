package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// SignatureHeader carries the HMAC-SHA256 signature of a webhook delivery
// body, hex encoded with a "sha256=" prefix.
const SignatureHeader = "X-Bridge-Signature"

const signaturePrefix = "sha256="

// SignPayload computes the delivery signature for a shared secret.
func SignPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature header against the body.
// Comparison is constant time.
func VerifySignature(secret, header string, body []byte) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return transportError(
			"transport: signature secret is required",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	signature := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), signaturePrefix))
	if signature == "" {
		return transportError(
			"transport: signature header is required",
			goerrors.CategoryAuth,
			http.StatusUnauthorized,
			map[string]any{"header": SignatureHeader},
		)
	}
	decoded, err := hex.DecodeString(signature)
	if err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryAuth,
			"transport: decode signature",
			http.StatusUnauthorized,
			map[string]any{"header": SignatureHeader},
		)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if subtle.ConstantTimeCompare(decoded, mac.Sum(nil)) != 1 {
		return transportError(
			"transport: signature verification failed",
			goerrors.CategoryAuth,
			http.StatusUnauthorized,
			map[string]any{"header": SignatureHeader},
		)
	}
	return nil
}
