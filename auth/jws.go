package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// jwsHeader is the protected header describing the signing context.
// Field order is fixed; it is serialized in this order wherever the
// header participates in a signature.
type jwsHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
	X5U string `json:"x5u"`
	Kid string `json:"kid"`
}

func newJWSHeader(certURL, keyID string) jwsHeader {
	return jwsHeader{
		Typ: "JOSE",
		Alg: "RS256",
		X5U: certURL,
		Kid: keyID,
	}
}

// headerList serializes the header as comma-joined k="v" pairs for the
// x-utm-jws-header field.
func (h jwsHeader) headerList() string {
	return fmt.Sprintf("typ=%q, alg=%q, x5u=%q, kid=%q", h.Typ, h.Alg, h.X5U, h.Kid)
}

// makeDetachedJWS produces a compact RS256 JWS over payload with h as
// the protected header, verifies it against the key pair's public key,
// and returns the detached form header..signature. The payload segment
// is elided because the payload travels as the request body itself.
func makeDetachedJWS(h jwsHeader, payload string, kp *KeyPair) (string, error) {
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("auth: encoding JWS header: %w", err)
	}

	encodedHeader := base64.RawURLEncoding.EncodeToString(headerJSON)
	signingInput := encodedHeader + "." + base64.RawURLEncoding.EncodeToString([]byte(payload))

	sig, err := jwt.SigningMethodRS256.Sign(signingInput, kp.private)
	if err != nil {
		return "", fmt.Errorf("auth: signing JWS: %w", err)
	}

	if err := jwt.SigningMethodRS256.Verify(signingInput, sig, kp.public); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	return encodedHeader + ".." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// reattachPayload reinserts a payload into a detached compact JWS,
// reconstituting the standard three-segment form.
func reattachPayload(detached, payload string) string {
	return strings.Replace(detached, "..", "."+base64.RawURLEncoding.EncodeToString([]byte(payload))+".", 1)
}
