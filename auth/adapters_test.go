package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoAuth(t *testing.T) {
	adapter, err := NewNoAuth("")
	require.NoError(t, err)

	token, err := adapter.IssueToken(context.Background(), "https://example.org/api", []string{"read", "write"})
	require.NoError(t, err)

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(noAuthKeyPEM))
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithAudience("https://example.org/api"))
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)

	assert.Equal(t, "uss_noauth", claims["sub"])
	assert.Equal(t, "uss_noauth", claims["client_id"])
	assert.Equal(t, "read write", claims["scope"])
	assert.Equal(t, "NoAuth", claims["iss"])
	assert.NotEmpty(t, claims["jti"])
}

func TestDummyOAuth(t *testing.T) {
	var query url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok"}`)
	}))
	t.Cleanup(srv.Close)

	adapter := NewDummyOAuth(srv.URL+"/token", "uss1")

	token, err := adapter.IssueToken(context.Background(), "https://example.org/api", []string{"read", "write"})
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	assert.Equal(t, "client_credentials", query.Get("grant_type"))
	assert.Equal(t, "read write", query.Get("scope"))
	assert.Equal(t, "https://example.org/api", query.Get("intended_audience"))
	assert.Equal(t, "dummy", query.Get("issuer"))
	assert.Equal(t, "uss1", query.Get("sub"))
}

func TestUsernamePassword(t *testing.T) {
	var form url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok"}`)
	}))
	t.Cleanup(srv.Close)

	adapter := NewUsernamePassword(srv.URL, "alice", "s3cret", "client1")

	scopes := []string{"read"}
	token, err := adapter.IssueToken(context.Background(), "https://example.org/api", scopes)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	assert.Equal(t, "password", form.Get("grant_type"))
	assert.Equal(t, "alice", form.Get("username"))
	assert.Equal(t, "s3cret", form.Get("password"))
	assert.Equal(t, "client1", form.Get("client_id"))
	assert.Equal(t, "read aud:https://example.org/api", form.Get("scope"))

	// The caller's scope slice is not mutated.
	assert.Equal(t, []string{"read"}, scopes)
}

func TestClientIDClientSecret(t *testing.T) {
	t.Run("JSON body by default", func(t *testing.T) {
		var contentType string
		var payload map[string]string

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &payload))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"tok"}`)
		}))
		t.Cleanup(srv.Close)

		adapter := NewClientIDClientSecret(srv.URL, "client1", "s3cret", false)

		token, err := adapter.IssueToken(context.Background(), "https://example.org/api", []string{"read"})
		require.NoError(t, err)
		assert.Equal(t, "tok", token)

		assert.Equal(t, "application/json", contentType)
		assert.Equal(t, "client_credentials", payload["grant_type"])
		assert.Equal(t, "client1", payload["client_id"])
		assert.Equal(t, "s3cret", payload["client_secret"])
		assert.Equal(t, "https://example.org/api", payload["audience"])
		assert.Equal(t, "read", payload["scope"])
	})

	t.Run("form body when configured", func(t *testing.T) {
		var contentType string
		var form url.Values

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			contentType = r.Header.Get("Content-Type")
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token":"tok"}`)
		}))
		t.Cleanup(srv.Close)

		adapter := NewClientIDClientSecret(srv.URL, "client1", "s3cret", true)

		_, err := adapter.IssueToken(context.Background(), "https://example.org/api", []string{"read"})
		require.NoError(t, err)

		assert.Equal(t, contentTypeForm, contentType)
		assert.Equal(t, "client1", form.Get("client_id"))
		assert.Equal(t, "https://example.org/api", form.Get("audience"))
	})

	t.Run("non-success response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":"access_denied"}`)
		}))
		t.Cleanup(srv.Close)

		adapter := NewClientIDClientSecret(srv.URL, "client1", "bad", false)

		_, err := adapter.IssueToken(context.Background(), "https://example.org/api", []string{"read"})
		require.Error(t, err)

		var tokenErr *AccessTokenError
		require.ErrorAs(t, err, &tokenErr)
		assert.Equal(t, http.StatusForbidden, tokenErr.StatusCode)
		assert.Contains(t, tokenErr.Body, "access_denied")
	})
}

func TestNewFlightPassport(t *testing.T) {
	assert.True(t, NewFlightPassport("https://auth.example.org", "c", "s", "true").sendAsForm)
	assert.True(t, NewFlightPassport("https://auth.example.org", "c", "s", "").sendAsForm)
	assert.False(t, NewFlightPassport("https://auth.example.org", "c", "s", "false").sendAsForm)
}
