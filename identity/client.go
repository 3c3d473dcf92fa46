// Package identity talks to the parent college application that owns
// passenger accounts.
package identity

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	config "github.com/campusride/transport_portal/configs"
	"github.com/pkg/errors"
)

var ErrUnauthorized = errors.New("identity provider rejected the credentials")

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ParentUser is the profile the parent application returns for a token.
type ParentUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	RollNumber  string   `json:"roll_number,omitempty"`
	Department  string   `json:"department,omitempty"`
	Mobile      string   `json:"mobile,omitempty"`
}

type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	HTTP         *http.Client
	Now          func() time.Time

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

func NewClient() *Client {
	return &Client{
		BaseURL:      strings.TrimRight(config.Config("PARENT_APP_URL"), "/"),
		ClientID:     config.Config("PARENT_CLIENT_ID"),
		ClientSecret: config.Config("PARENT_CLIENT_SECRET"),
		RedirectURI:  config.Config("PARENT_REDIRECT_URI"),
		HTTP:         &http.Client{Timeout: 15 * time.Second},
		Now:          time.Now,
	}
}

func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("scope", "openid profile email")
	q.Set("state", state)
	return c.BaseURL + "/oauth/authorize?" + q.Encode()
}

// ExchangeCode trades an authorization code for the passenger's access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)
	return c.requestToken(ctx, form)
}

func (c *Client) FetchUser(ctx context.Context, accessToken string) (*ParentUser, error) {
	var user ParentUser
	if err := c.getJSON(ctx, "/api/oauth/userinfo", accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == "" || user.Email == "" {
		return nil, errors.New("userinfo response missing id or email")
	}
	return &user, nil
}

// LookupUser fetches a passenger by parent id with the service token.
func (c *Client) LookupUser(ctx context.Context, externalID string) (*ParentUser, error) {
	token, err := c.ServiceToken(ctx)
	if err != nil {
		return nil, err
	}
	var user ParentUser
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(externalID), token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ServiceToken returns a cached client-credentials token, refreshing it five
// minutes before expiry.
func (c *Client) ServiceToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != "" && c.Now().Before(c.tokenExpiry) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	log.Println("Fetching new identity service token...")
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	resp, err := c.requestToken(ctx, form)
	if err != nil {
		return "", err
	}

	c.token = resp.AccessToken
	c.tokenExpiry = c.Now().Add(time.Duration(resp.ExpiresIn-300) * time.Second)
	return c.token, nil
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build token request")
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "token request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("token endpoint returned %s", resp.Status)
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, errors.Wrap(err, "decode token response")
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token endpoint returned no access_token")
	}
	return &tr, nil
}

func (c *Client) getJSON(ctx context.Context, path, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s returned %s", path, resp.Status)
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decode %s", path)
}
