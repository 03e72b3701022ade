package auth

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// coveredComponents lists the component names covered by the
// component-list signature, in signing order. The order is part of the
// cryptographic contract: reordering changes the signature base and
// invalidates the signature.
var coveredComponents = []string{
	"@method",
	"@path",
	"@query",
	"authorization",
	"content-type",
	"content-digest",
	"x-utm-jws-header",
}

// signatureContext carries the per-call artifacts of the component-list
// convention: the component values, their order, the serialized
// signature parameters, and the canonical base. It is constructed during
// one issuance call and discarded after the HTTP exchange.
type signatureContext struct {
	components map[string]string
	order      []string
	params     string
	base       string
}

// buildSignatureBase assembles the canonical signature base for a POST
// of body to path, created at the given Unix timestamp.
//
// The authorization component is always serialized empty: no bearer
// token exists yet when the token request itself is being signed.
func buildSignatureBase(h jwsHeader, body, path string, created int64) signatureContext {
	values := map[string]string{
		"@method":          "POST",
		"@path":            path,
		"@query":           "?",
		"authorization":    "",
		"content-type":     contentTypeForm,
		"content-digest":   DigestHeaderValue(body),
		"x-utm-jws-header": h.headerList(),
	}

	quoted := make([]string, 0, len(coveredComponents))
	for _, name := range coveredComponents {
		quoted = append(quoted, strconv.Quote(name))
	}

	params := fmt.Sprintf("(%s);created=%d", strings.Join(quoted, " "), created)
	values["@signature-params"] = params

	order := append([]string{}, coveredComponents...)
	order = append(order, "@signature-params")

	lines := make([]string, 0, len(order))
	for _, name := range order {
		lines = append(lines, fmt.Sprintf("%q: %s", name, values[name]))
	}

	return signatureContext{
		components: values,
		order:      order,
		params:     params,
		base:       strings.Join(lines, "\n"),
	}
}

// signBase produces a raw RS256 signature over the canonical base,
// verifies it against the public key, and returns it encoded with
// standard padded base64.
func signBase(base string, kp *KeyPair) (string, error) {
	sig, err := jwt.SigningMethodRS256.Sign(base, kp.private)
	if err != nil {
		return "", fmt.Errorf("auth: signing signature base: %w", err)
	}

	if err := jwt.SigningMethodRS256.Verify(base, sig, kp.public); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}
