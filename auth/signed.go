package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Signature styles for SignedRequest.
const (
	// StyleUPP2 transmits a compact JWS with a detached payload.
	StyleUPP2 = "UPP2"

	// StyleUFT signs an ordered component list over the request.
	StyleUFT = "UFT"
)

const contentTypeForm = "application/x-www-form-urlencoded"

// Header names carrying the signature artifacts.
const (
	headerMessageSignature      = "x-utm-message-signature"
	headerMessageSignatureInput = "x-utm-message-signature-input"
)

// signatureLabel identifies the signature in the signature and
// signature-input headers of the component-list convention.
const signatureLabel = "utm-message-signature"

// SignedRequestConfig configures a SignedRequest adapter.
type SignedRequestConfig struct {
	// TokenEndpoint is the authorization server's token URL. Required.
	TokenEndpoint string

	// ClientID identifies the client the token is requested for.
	// Required.
	ClientID string

	// KeyPath is the path of the PEM private key used to sign token
	// requests. Must end in .key or .pem.
	KeyPath string

	// CertURL is the publicly reachable URL of the certificate holding
	// the public key matching KeyPath, signed by an authority the
	// authorization server recognizes. Must end in .der or .crt.
	CertURL string

	// KeyID overrides the key identifier placed in the JWS header.
	// Defaults to the thumbprint of the public key.
	KeyID string

	// Style selects the signature convention, StyleUPP2 or StyleUFT.
	// Defaults to StyleUPP2.
	Style string

	// HTTPClient issues the certificate fetch and token requests.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// SignedRequest obtains tokens by cryptographically signing its outgoing
// token requests. It is safe for concurrent use: the key pair is
// immutable and all other state is per-call.
type SignedRequest struct {
	endpoint string
	path     string
	clientID string
	certURL  string
	style    string
	keyPair  *KeyPair
	client   *http.Client
	now      func() time.Time
}

// NewSignedRequest loads and cross-validates the key material and
// returns a ready adapter. All configuration problems surface here,
// never at token-issuance time.
func NewSignedRequest(ctx context.Context, cfg SignedRequestConfig) (*SignedRequest, error) {
	style := cfg.Style
	if style == "" {
		style = StyleUPP2
	}

	if style != StyleUPP2 && style != StyleUFT {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, cfg.Style)
	}

	endpoint, err := url.Parse(cfg.TokenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing token endpoint: %w", err)
	}

	kp, err := LoadKeyPair(ctx, KeyPairConfig{
		KeyPath:    cfg.KeyPath,
		CertURL:    cfg.CertURL,
		KeyID:      cfg.KeyID,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	return &SignedRequest{
		endpoint: cfg.TokenEndpoint,
		path:     endpoint.Path,
		clientID: cfg.ClientID,
		certURL:  cfg.CertURL,
		style:    style,
		keyPair:  kp,
		client:   httpClientOrDefault(cfg.HTTPClient),
		now:      time.Now,
	}, nil
}

// IssueToken implements Adapter. It builds the token request body, signs
// it per the configured style, and performs one POST to the token
// endpoint. The body bytes that were signed are exactly the bytes
// transmitted.
func (a *SignedRequest) IssueToken(ctx context.Context, intendedAudience string, scopes []string) (string, error) {
	now := a.now().UTC()
	body := newTokenRequestParams(a.clientID, intendedAudience, scopes, now).Encode()
	header := newJWSHeader(a.certURL, a.keyPair.KeyID())

	headers := http.Header{}

	switch a.style {
	case StyleUPP2:
		detached, err := makeDetachedJWS(header, body, a.keyPair)
		if err != nil {
			return "", err
		}

		headers.Set("Content-Type", contentTypeForm)
		headers.Set(headerMessageSignature, detached)

	case StyleUFT:
		sigCtx := buildSignatureBase(header, body, a.path, now.Unix())

		signature, err := signBase(sigCtx.base, a.keyPair)
		if err != nil {
			return "", err
		}

		for _, name := range sigCtx.order {
			if strings.HasPrefix(name, "@") {
				continue
			}

			headers.Set(name, sigCtx.components[name])
		}

		headers.Set(headerMessageSignature, signatureLabel+"=:"+signature+":")
		headers.Set(headerMessageSignatureInput, signatureLabel+"="+sigCtx.params)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("auth: building token request: %w", err)
	}

	for name, values := range headers {
		req.Header[name] = values
	}

	return requestToken(a.client, req)
}
