// Package idp talks to the external identity provider (an Auth0-compatible
// tenant). Every operation fails closed: transport and API errors are logged
// and reported as unsuccessful results, never propagated to callers.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Stable, user-presentable messages for the classified signup failures.
const (
	msgInvalidCredentials = "Authentication failed. Please check your credentials."
	msgWeakPassword       = "Password does not meet requirements. Password must be at least 8 characters and contain at least 3 of the following: lowercase letters, uppercase letters, numbers, and special characters."
	msgDuplicateAccount   = "An account with that email already exists."
	msgSignupFailed       = "Registration failed. Please try again."
)

// LoginResult is the outcome of a resource-owner password grant.
type LoginResult struct {
	Success      bool
	AccessToken  string
	IDToken      string
	Email        string
	FullName     string
	ErrorMessage string
}

// SignupResult is the outcome of a signup attempt.
type SignupResult struct {
	Success      bool
	UserID       string
	Email        string
	ErrorMessage string
}

// UserInfo is the subject returned by the provider's userinfo endpoint.
type UserInfo struct {
	Email string
	Name  string
	Sub   string
}

// Service is the provider surface the rest of the application depends on.
type Service interface {
	Login(ctx context.Context, email, password string) LoginResult
	Signup(ctx context.Context, email, password, fullName string) SignupResult
	GetUserInfo(ctx context.Context, accessToken string) *UserInfo
	GetUserIDByEmail(ctx context.Context, email string) string
	BlockUser(ctx context.Context, email string, blocked bool) bool
	UpdatePassword(ctx context.Context, email, newPassword string) bool
}

// Client implements Service against an HTTPS JSON provider API.
type Client struct {
	domain       string
	clientID     string
	clientSecret string
	connection   string
	http         *http.Client

	mgmt managementTokenCache
}

var _ Service = (*Client)(nil)

// NewClient creates a provider client for the given tenant.
func NewClient(domain, clientID, clientSecret, connection string) *Client {
	return &Client{
		domain:       domain,
		clientID:     clientID,
		clientSecret: clientSecret,
		connection:   connection,
		http:         &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) baseURL() string {
	if strings.HasPrefix(c.domain, "http://") || strings.HasPrefix(c.domain, "https://") {
		return strings.TrimSuffix(c.domain, "/")
	}
	return "https://" + strings.TrimSuffix(c.domain, "/")
}

// Login authenticates via the resource-owner password grant and resolves the
// subject's profile. Any failure yields an unsuccessful result with a generic
// message.
func (c *Client) Login(ctx context.Context, email, password string) LoginResult {
	payload := map[string]string{
		"grant_type":    "password",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"username":      email,
		"password":      password,
		"scope":         "openid profile email",
	}

	var token struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
	}
	if err := c.postJSON(ctx, "/oauth/token", payload, &token); err != nil {
		log.Printf("idp: login failed for %s: %v", email, err)
		return LoginResult{Success: false, ErrorMessage: msgInvalidCredentials}
	}
	if token.AccessToken == "" {
		return LoginResult{Success: false, ErrorMessage: "Invalid credentials"}
	}

	result := LoginResult{
		Success:     true,
		AccessToken: token.AccessToken,
		IDToken:     token.IDToken,
		Email:       email,
	}
	if info := c.GetUserInfo(ctx, token.AccessToken); info != nil {
		if info.Email != "" {
			result.Email = info.Email
		}
		result.FullName = info.Name
	}
	return result
}

// Signup creates a provider-side account. Provider errors are classified into
// weak-password, duplicate-account and generic failures with stable messages.
func (c *Client) Signup(ctx context.Context, email, password, fullName string) SignupResult {
	payload := map[string]interface{}{
		"client_id":  c.clientID,
		"email":      email,
		"password":   password,
		"connection": c.connection,
		"user_metadata": map[string]string{
			"full_name": fullName,
		},
	}

	var created struct {
		ID    string `json:"_id"`
		Email string `json:"email"`
	}
	if err := c.postJSON(ctx, "/dbconnections/signup", payload, &created); err != nil {
		log.Printf("idp: signup failed for %s: %v", email, err)
		return SignupResult{Success: false, ErrorMessage: classifySignupError(err)}
	}
	if created.ID == "" {
		return SignupResult{Success: false, ErrorMessage: "Failed to create user"}
	}
	return SignupResult{Success: true, UserID: created.ID, Email: created.Email}
}

// GetUserInfo resolves the profile behind an access token, or nil on any error.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) *UserInfo {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/userinfo", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Sub      string `json:"sub"`
	}
	if err := c.do(req, &body); err != nil {
		log.Printf("idp: userinfo failed: %v", err)
		return nil
	}

	name := body.Name
	if name == "" {
		name = body.FullName
	}
	return &UserInfo{Email: body.Email, Name: name, Sub: body.Sub}
}

// apiError carries the provider's error classification alongside its message.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("provider api error (status %d, code %q): %s", e.Status, e.Code, e.Message)
}

func classifySignupError(err error) string {
	api, ok := err.(*apiError)
	if !ok {
		return msgSignupFailed
	}
	msg := strings.ToLower(api.Message)
	switch {
	case api.Code == "invalid_password" || api.Code == "invalid_signup" && strings.Contains(msg, "password"),
		strings.Contains(msg, "password"):
		return msgWeakPassword
	case api.Code == "user_exists",
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "duplicate"):
		return msgDuplicateAccount
	default:
		return msgSignupFailed
	}
}

// postJSON posts a JSON payload and decodes the 2xx response into out.
// Non-2xx responses become *apiError.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error            string `json:"error"`
			Code             string `json:"code"`
			Description      string `json:"description"`
			ErrorDescription string `json:"error_description"`
			Message          string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		code := e.Error
		if e.Code != "" {
			code = e.Code
		}
		message := e.ErrorDescription
		if message == "" {
			message = e.Description
		}
		if message == "" {
			message = e.Message
		}
		return &apiError{Status: resp.StatusCode, Code: code, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func (c *Client) encodeQuery(params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return q.Encode()
}
