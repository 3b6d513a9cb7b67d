package nowpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Signature header names the gateway has been seen to use. http.Header lookup
// is case-insensitive.
var signatureHeaders = []string{"x-nowpayments-sig", "x-nowpayments-signature"}

// VerifySignature authenticates an IPN callback: HMAC-SHA512 hex over the
// exact bytes received, keyed by the shared IPN secret. The body must not be
// re-serialized before verification; the sender signs its own serialization.
func VerifySignature(body []byte, header http.Header, secret string) error {
	var sig string
	for _, name := range signatureHeaders {
		if sig = header.Get(name); sig != "" {
			break
		}
	}
	if sig == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
