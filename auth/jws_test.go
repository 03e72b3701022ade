package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeyPair(t *testing.T) *KeyPair {
	t.Helper()

	key, _ := newTestKey(t)

	return &KeyPair{private: key, public: &key.PublicKey, keyID: "test-key"}
}

func TestMakeDetachedJWS(t *testing.T) {
	kp := newTestKeyPair(t)
	header := newJWSHeader("https://example.org/cert.der", kp.KeyID())
	payload := "grant_type=client_credentials&client_id=uss1&scope=read write"

	detached, err := makeDetachedJWS(header, payload, kp)
	require.NoError(t, err)

	t.Run("payload segment is elided", func(t *testing.T) {
		parts := strings.Split(detached, ".")
		require.Len(t, parts, 3)
		assert.Empty(t, parts[1])
		assert.NotEmpty(t, parts[0])
		assert.NotEmpty(t, parts[2])
	})

	t.Run("protected header carries the signing context", func(t *testing.T) {
		headerJSON, err := base64.RawURLEncoding.DecodeString(strings.Split(detached, ".")[0])
		require.NoError(t, err)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(headerJSON, &decoded))

		assert.Equal(t, "JOSE", decoded["typ"])
		assert.Equal(t, "RS256", decoded["alg"])
		assert.Equal(t, "https://example.org/cert.der", decoded["x5u"])
		assert.Equal(t, kp.KeyID(), decoded["kid"])
	})

	t.Run("reattaching the payload reconstitutes a valid JWS", func(t *testing.T) {
		full := reattachPayload(detached, payload)
		parts := strings.Split(full, ".")
		require.Len(t, parts, 3)

		decodedPayload, err := base64.RawURLEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		assert.Equal(t, payload, string(decodedPayload))

		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)

		err = jwt.SigningMethodRS256.Verify(parts[0]+"."+parts[1], sig, kp.PublicKey())
		assert.NoError(t, err)
	})

	t.Run("signature does not verify against another key", func(t *testing.T) {
		other := newTestKeyPair(t)

		full := reattachPayload(detached, payload)
		parts := strings.Split(full, ".")

		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)

		err = jwt.SigningMethodRS256.Verify(parts[0]+"."+parts[1], sig, other.PublicKey())
		assert.Error(t, err)
	})
}

func TestJWSHeaderList(t *testing.T) {
	h := newJWSHeader("https://example.org/cert.der", "kid-1")

	want := `typ="JOSE", alg="RS256", x5u="https://example.org/cert.der", kid="kid-1"`
	assert.Equal(t, want, h.headerList())
}
