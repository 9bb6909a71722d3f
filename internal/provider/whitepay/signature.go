package whitepay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signature computes the hex-encoded HMAC-SHA256 of the raw callback body
// keyed by the shared webhook secret. The signature covers the exact bytes
// on the wire; re-serialized JSON is not byte-identical to the original.
func Signature(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether claimed authenticates rawBody under
// secret. The comparison is constant-time; an absent secret or signature is
// a verification failure, never a bypass.
func VerifySignature(rawBody []byte, secret, claimed string) bool {
	claimed = strings.TrimSpace(claimed)
	if secret == "" || claimed == "" {
		return false
	}
	expected := Signature(rawBody, secret)
	return hmac.Equal([]byte(expected), []byte(claimed))
}
