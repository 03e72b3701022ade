package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Adapter issues bearer tokens for an intended audience and scope set.
// Every adapter variant, signing or not, implements this single
// capability.
type Adapter interface {
	// IssueToken returns a bearer token for the given audience and
	// scopes, or an *AccessTokenError when the authorization server
	// rejects the request.
	IssueToken(ctx context.Context, intendedAudience string, scopes []string) (string, error)
}

// requestToken performs the HTTP exchange and extracts the access_token
// field from a successful JSON response. Any non-200 response becomes an
// *AccessTokenError carrying the status, body, and request URL.
func requestToken(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("auth: reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AccessTokenError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			URL:        req.URL.String(),
		}
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("auth: parsing token response: %w", err)
	}

	return parsed.AccessToken, nil
}
