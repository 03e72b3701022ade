package auth

import (
	"errors"
	"fmt"
)

// Construction errors.
var (
	// ErrUnknownStyle is returned when a signature style other than
	// StyleUPP2 or StyleUFT is configured.
	ErrUnknownStyle = errors.New("auth: unknown signature style")

	// ErrUnsupportedFormat is returned when a private key path or
	// certificate URL does not carry a recognized file extension. Only
	// PEM private keys (.key, .pem) and DER or PEM certificates (.der,
	// .crt) are accepted.
	ErrUnsupportedFormat = errors.New("auth: unsupported key or certificate format")

	// ErrKeyMismatch is returned when the public key derived from the
	// private key does not equal the public key embedded in the fetched
	// certificate.
	ErrKeyMismatch = errors.New("auth: public key in certificate does not match private key")
)

// Signing errors.
var (
	// ErrSignatureVerification is returned when a freshly produced
	// signature fails verification against the public key. This
	// indicates defective key material, not a remote failure.
	ErrSignatureVerification = errors.New("auth: could not construct a valid cryptographic signature")
)

// Adapter specification errors.
var (
	// ErrBadAdapterSpec is returned when an adapter specification cannot
	// be parsed or binds its parameters inconsistently.
	ErrBadAdapterSpec = errors.New("auth: adapter specification did not match the pattern `AdapterName(param, param, ...)`")

	// ErrUnknownAdapter is returned when an adapter specification names
	// an adapter that is not registered.
	ErrUnknownAdapter = errors.New("auth: adapter does not exist")
)

// AccessTokenError is returned when the token endpoint responds with a
// non-success status. The status, response body, and request URL are
// preserved for diagnosis.
type AccessTokenError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *AccessTokenError) Error() string {
	return fmt.Sprintf("auth: token request returned %d %q at %s", e.StatusCode, e.Body, e.URL)
}
