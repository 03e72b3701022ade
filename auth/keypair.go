package auth

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeyPair holds a private key, its derived public key, and a key
// identifier. It is immutable after construction and safe for concurrent
// use.
type KeyPair struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	keyID   string
}

// KeyID returns the key identifier the authorization server uses to
// locate the matching certificate.
func (kp *KeyPair) KeyID() string { return kp.keyID }

// PublicKey returns the public key derived from the private key.
func (kp *KeyPair) PublicKey() *rsa.PublicKey { return kp.public }

// KeyPairConfig configures key material loading.
type KeyPairConfig struct {
	// KeyPath is the path of the PEM private key. Must end in .key or
	// .pem.
	KeyPath string

	// CertURL is the publicly reachable URL of the certificate holding
	// the matching public key. Must end in .der or .crt.
	CertURL string

	// KeyID overrides the key identifier. When empty, the RFC 7638
	// thumbprint of the public key is used.
	KeyID string

	// HTTPClient fetches the certificate. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// LoadKeyPair reads the private key, fetches the certificate, and
// cross-validates the two: the public key derived from the private key
// must byte-for-byte equal the public key embedded in the certificate.
// A mismatched pair would sign requests the authorization server can
// never validate against the published certificate, so it is rejected
// here rather than at first use.
//
// Both file extensions are checked before any file or network access.
func LoadKeyPair(ctx context.Context, cfg KeyPairConfig) (*KeyPair, error) {
	if !hasSuffixFold(cfg.KeyPath, ".key") && !hasSuffixFold(cfg.KeyPath, ".pem") {
		return nil, fmt.Errorf("%w: key path must end with .key or .pem", ErrUnsupportedFormat)
	}

	certPEM := hasSuffixFold(cfg.CertURL, ".crt")
	if !certPEM && !hasSuffixFold(cfg.CertURL, ".der") {
		return nil, fmt.Errorf("%w: certificate URL must end with .der or .crt", ErrUnsupportedFormat)
	}

	keyBytes, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: reading private key: %w", err)
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing private key: %w", err)
	}

	certKey, err := fetchCertificateKey(ctx, httpClientOrDefault(cfg.HTTPClient), cfg.CertURL, certPEM)
	if err != nil {
		return nil, err
	}

	derived, err := x509.MarshalPKIXPublicKey(&private.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("auth: encoding derived public key: %w", err)
	}

	fromCert, err := x509.MarshalPKIXPublicKey(certKey)
	if err != nil {
		return nil, fmt.Errorf("auth: encoding certificate public key: %w", err)
	}

	if !bytes.Equal(derived, fromCert) {
		return nil, ErrKeyMismatch
	}

	keyID := cfg.KeyID
	if keyID == "" {
		keyID, err = thumbprint(&private.PublicKey)
		if err != nil {
			return nil, err
		}
	}

	return &KeyPair{
		private: private,
		public:  &private.PublicKey,
		keyID:   keyID,
	}, nil
}

// fetchCertificateKey retrieves the certificate at certURL and returns
// its public key.
func fetchCertificateKey(ctx context.Context, client *http.Client, certURL string, pemEncoded bool) (crypto.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building certificate request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: fetching certificate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: reading certificate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: fetching certificate: %s returned %d", certURL, resp.StatusCode)
	}

	der := body
	if pemEncoded {
		block, _ := pem.Decode(body)
		if block == nil {
			return nil, fmt.Errorf("auth: certificate at %s is not valid PEM", certURL)
		}

		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing certificate: %w", err)
	}

	return cert.PublicKey, nil
}

// thumbprint computes the RFC 7638 thumbprint of pub, encoded as
// unpadded base64url.
func thumbprint(pub *rsa.PublicKey) (string, error) {
	key, err := jwk.FromRaw(pub)
	if err != nil {
		return "", fmt.Errorf("auth: building JWK from public key: %w", err)
	}

	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("auth: computing key thumbprint: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(tp), nil
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), suffix)
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}

	return http.DefaultClient
}
