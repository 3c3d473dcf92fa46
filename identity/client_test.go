package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{
		BaseURL:      srv.URL,
		ClientID:     "transport",
		ClientSecret: "s3cret",
		RedirectURI:  "https://transport.example.edu/auth/callback",
		HTTP:         srv.Client(),
		Now:          time.Now,
	}
}

func TestAuthorizeURL(t *testing.T) {
	c := &Client{BaseURL: "https://college.example.edu", ClientID: "transport", RedirectURI: "https://t.example.edu/cb"}
	u, err := url.Parse(c.AuthorizeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", u.Path)
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "transport", u.Query().Get("client_id"))
	assert.Equal(t, "https://t.example.edu/cb", u.Query().Get("redirect_uri"))
}

func TestExchangeCodeAndFetchUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "transport", user)
		assert.Equal(t, "s3cret", pass)
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "user-token", ExpiresIn: 3600})
	})
	mux.HandleFunc("/api/oauth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(ParentUser{ID: "p-42", Email: "asha@example.edu", FullName: "Asha Kumar", Role: "student"})
	})
	c := newTestClient(t, mux)

	tok, err := c.ExchangeCode(context.Background(), "good-code")
	require.NoError(t, err)
	user, err := c.FetchUser(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "p-42", user.ID)
	assert.Equal(t, "Asha Kumar", user.FullName)

	_, err = c.ExchangeCode(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.FetchUser(context.Background(), "stolen")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestServiceTokenIsCached(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "svc-token", ExpiresIn: 3600})
	})
	mux.HandleFunc("/api/users/p-42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ParentUser{ID: "p-42", Email: "asha@example.edu"})
	})
	c := newTestClient(t, mux)
	now := time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)
	c.Now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := c.LookupUser(context.Background(), "p-42")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	now = now.Add(56 * time.Minute)
	_, err := c.ServiceToken(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
