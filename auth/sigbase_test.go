package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSignatureBase(t *testing.T) {
	header := newJWSHeader("https://example.org/cert.der", "kid-1")
	body := "grant_type=client_credentials&client_id=uss1&scope=read write&resource=aud&current_timestamp=ts"
	const created = int64(1700000000)

	sigCtx := buildSignatureBase(header, body, "/token", created)

	t.Run("base lines follow the component order exactly", func(t *testing.T) {
		want := strings.Join([]string{
			`"@method": POST`,
			`"@path": /token`,
			`"@query": ?`,
			`"authorization": `,
			`"content-type": application/x-www-form-urlencoded`,
			fmt.Sprintf(`"content-digest": %s`, DigestHeaderValue(body)),
			fmt.Sprintf(`"x-utm-jws-header": %s`, header.headerList()),
			fmt.Sprintf(`"@signature-params": %s`, sigCtx.params),
		}, "\n")

		assert.Equal(t, want, sigCtx.base)
	})

	t.Run("signature params quote the covered components", func(t *testing.T) {
		want := `("@method" "@path" "@query" "authorization" "content-type" "content-digest" "x-utm-jws-header");created=1700000000`
		assert.Equal(t, want, sigCtx.params)
	})

	t.Run("content digest matches the body", func(t *testing.T) {
		assert.Equal(t, DigestHeaderValue(body), sigCtx.components["content-digest"])
	})

	t.Run("authorization is covered but empty", func(t *testing.T) {
		assert.Contains(t, sigCtx.components, "authorization")
		assert.Empty(t, sigCtx.components["authorization"])
	})
}

func TestSignBase(t *testing.T) {
	kp := newTestKeyPair(t)

	t.Run("signature round-trips against the public key", func(t *testing.T) {
		encoded, err := signBase("\"@method\": POST", kp)
		require.NoError(t, err)

		sig, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)

		assert.NoError(t, jwt.SigningMethodRS256.Verify("\"@method\": POST", sig, kp.PublicKey()))
	})

	t.Run("component order is part of what is signed", func(t *testing.T) {
		header := newJWSHeader("https://example.org/cert.der", kp.KeyID())
		body := "grant_type=client_credentials"

		sigCtx := buildSignatureBase(header, body, "/token", 1700000000)

		// Swap two lines of the canonical base.
		lines := strings.Split(sigCtx.base, "\n")
		require.Greater(t, len(lines), 2)
		lines[0], lines[1] = lines[1], lines[0]
		reordered := strings.Join(lines, "\n")

		original, err := signBase(sigCtx.base, kp)
		require.NoError(t, err)

		swapped, err := signBase(reordered, kp)
		require.NoError(t, err)

		assert.NotEqual(t, original, swapped)
	})
}
