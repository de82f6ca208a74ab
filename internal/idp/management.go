package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// managementTokenCache holds a service-level credential obtained via the
// client-credentials grant. The token is reused until shortly before expiry.
type managementTokenCache struct {
	mu      sync.Mutex
	token   string
	expires time.Time
}

// managementToken returns a valid management API token, requesting a fresh
// one when the cached token is missing or about to expire.
func (c *Client) managementToken(ctx context.Context) (string, error) {
	c.mgmt.mu.Lock()
	defer c.mgmt.mu.Unlock()

	if c.mgmt.token != "" && time.Now().Before(c.mgmt.expires.Add(-time.Minute)) {
		return c.mgmt.token, nil
	}

	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"audience":      c.baseURL() + "/api/v2/",
	}
	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.postJSON(ctx, "/oauth/token", payload, &token); err != nil {
		return "", err
	}

	c.mgmt.token = token.AccessToken
	c.mgmt.expires = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.mgmt.token, nil
}

// GetUserIDByEmail resolves the provider-side user id for an email via the
// management user-search endpoint. Returns "" when the user cannot be found
// or the provider is unreachable.
func (c *Client) GetUserIDByEmail(ctx context.Context, email string) string {
	token, err := c.managementToken(ctx)
	if err != nil {
		log.Printf("idp: management token for user lookup failed: %v", err)
		return ""
	}

	endpoint := c.baseURL() + "/api/v2/users-by-email?" + c.encodeQuery(map[string]string{"email": email})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var users []struct {
		UserID string `json:"user_id"`
	}
	if err := c.do(req, &users); err != nil {
		log.Printf("idp: user lookup by email %s failed: %v", email, err)
		return ""
	}
	if len(users) == 0 {
		return ""
	}
	return users[0].UserID
}

// BlockUser sets or clears the blocked flag on the provider-side account.
func (c *Client) BlockUser(ctx context.Context, email string, blocked bool) bool {
	return c.patchUser(ctx, email, map[string]interface{}{"blocked": blocked}, "block")
}

// UpdatePassword changes the provider-side password. The management call's
// success is authoritative: the provider may lag before the new password
// verifies, and that lag must not be reported as failure.
func (c *Client) UpdatePassword(ctx context.Context, email, newPassword string) bool {
	return c.patchUser(ctx, email, map[string]interface{}{
		"password":   newPassword,
		"connection": c.connection,
	}, "password update")
}

func (c *Client) patchUser(ctx context.Context, email string, body map[string]interface{}, op string) bool {
	userID := c.GetUserIDByEmail(ctx, email)
	if userID == "" {
		log.Printf("idp: %s for %s failed: provider user not found", op, email)
		return false
	}

	token, err := c.managementToken(ctx)
	if err != nil {
		log.Printf("idp: management token for %s failed: %v", op, err)
		return false
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return false
	}
	endpoint := c.baseURL() + "/api/v2/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	if err := c.do(req, nil); err != nil {
		log.Printf("idp: %s for %s failed: %v", op, email, err)
		return false
	}
	return true
}
