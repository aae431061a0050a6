// Package security implements the webhook signature verifier.
package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature checks the raw request body against the
// "sha256=<hex>" header value using the shared secret. The comparison
// is constant-time; a missing header, wrong prefix, or malformed hex
// all report false without leaking timing information about which
// byte differs.
//
// body MUST be the raw bytes exactly as received: re-serialized JSON
// will not reproduce the sender's signature.
func VerifySignature(body []byte, header, secret string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}

	expectedHex := strings.TrimPrefix(header, signaturePrefix)
	expectedMAC, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computedMAC := mac.Sum(nil)

	return hmac.Equal(computedMAC, expectedMAC)
}
