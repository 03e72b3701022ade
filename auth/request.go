package auth

import (
	"strings"
	"time"
)

// requestParam is one field of the token request body. Parameters are
// kept as an ordered sequence, never a map: the serialized body is part
// of what gets signed, and reordering it invalidates the signature.
type requestParam struct {
	name  string
	value string
}

// tokenRequestParams is the ordered token-request body, rebuilt per
// issuance call.
type tokenRequestParams []requestParam

// newTokenRequestParams builds the body for one issuance call with a
// fresh timestamp.
func newTokenRequestParams(clientID, audience string, scopes []string, now time.Time) tokenRequestParams {
	return tokenRequestParams{
		{"grant_type", "client_credentials"},
		{"client_id", clientID},
		{"scope", strings.Join(scopes, " ")},
		{"resource", audience},
		{"current_timestamp", now.UTC().Format("2006-01-02T15:04:05.000000") + "Z"},
	}
}

// Encode serializes the parameters as the literal k=v&k=v body. Values
// are embedded as-is: the same bytes are signed and transmitted, and
// escaping here would make the two diverge.
func (p tokenRequestParams) Encode() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, param.name+"="+param.value)
	}

	return strings.Join(parts, "&")
}
