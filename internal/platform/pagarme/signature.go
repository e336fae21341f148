package pagarme

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// SignatureHeader carries the postback HMAC.
const SignatureHeader = "X-Hub-Signature"

// Sign returns the sha1 header value for payload.
func Sign(secret string, payload []byte) string {
	return "sha1=" + hex.EncodeToString(mac(sha1.New, secret, payload))
}

// VerifySignature checks header ("sha1=<hex>", "sha256=<hex>" or bare sha1
// hex) against payload. It fails closed on empty input.
func VerifySignature(secret string, payload []byte, header string) bool {
	header = strings.TrimSpace(header)
	if secret == "" || len(payload) == 0 || header == "" {
		return false
	}
	algo, digest, found := strings.Cut(header, "=")
	if !found {
		algo, digest = "sha1", header
	}
	var h func() hash.Hash
	switch strings.ToLower(algo) {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	default:
		return false
	}
	want, err := hex.DecodeString(strings.ToLower(digest))
	if err != nil || len(want) == 0 {
		return false
	}
	return hmac.Equal(mac(h, secret, payload), want)
}

func mac(h func() hash.Hash, secret string, payload []byte) []byte {
	m := hmac.New(h, []byte(secret))
	m.Write(payload)
	return m.Sum(nil)
}
