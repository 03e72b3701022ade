// Package auth issues access tokens from UTM authorization servers on
// behalf of a USS client, without a prior interactive session.
//
// Every adapter implements a single capability:
//
//	token, err := adapter.IssueToken(ctx, "https://example.org/api", []string{"read"})
//
// # Adapters
//
// Non-signing adapters (NoAuth, DummyOAuth, UsernamePassword,
// ClientIDClientSecret, FlightPassport, ServiceAccount) exchange plain
// OAuth2 grants for a token. SignedRequest additionally signs each
// outgoing token request with a private key whose certificate is
// published at a public URL, so the server can verify both the
// requester's identity and the request's integrity.
//
// # Signature styles
//
// SignedRequest supports two wire conventions:
//
//   - StyleUPP2 transmits a compact JWS over the literal request body
//     with the payload segment elided, since the payload already travels
//     as the body itself.
//   - StyleUFT signs an ordered list of request components (method, path,
//     query, content digest, JWS header) in the manner of HTTP message
//     signatures, and transmits the signature and its input as separate
//     headers.
//
// Every signature is verified against the public key immediately after
// it is produced, so defective key material fails fast instead of
// producing token requests the server can never validate.
//
// # Building adapters from a specification
//
// Make constructs an adapter from a textual specification:
//
//	adapter, err := auth.Make(ctx, "DummyOAuth(http://localhost:8085/token, sub=uss1)")
//
// The set of adapter names is a closed, explicit registry.
package auth
