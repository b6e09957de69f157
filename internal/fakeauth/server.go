// Package fakeauth runs an in-process OAuth2 authorization server that issues
// client-credentials tokens, for tests.
package fakeauth

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/models"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/go-oauth2/oauth2/v4/store"
)

// TokenPath is where the server answers grant requests.
const TokenPath = "/ws/oauth/token"

// Server is a client-credentials authorization server backed by go-oauth2.
type Server struct {
	*httptest.Server

	exchanges atomic.Int64
	lastScope atomic.Value
}

// Config describes the single registered client.
type Config struct {
	ClientID     string
	ClientSecret string

	// TokenTTL is the access token lifetime. Defaults to one hour.
	TokenTTL time.Duration
}

// NewServer starts a server and closes it when the test ends.
func NewServer(t testing.TB, cfg Config) *Server {
	t.Helper()

	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}

	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: ttl})
	manager.MustTokenStorage(store.NewMemoryTokenStore())

	clientStore := store.NewClientStore()
	if err := clientStore.Set(cfg.ClientID, &models.Client{
		ID:     cfg.ClientID,
		Secret: cfg.ClientSecret,
	}); err != nil {
		t.Fatalf("fakeauth: register client: %v", err)
	}
	manager.MapClientStorage(clientStore)

	srv := server.NewDefaultServer(manager)
	srv.SetClientInfoHandler(server.ClientFormHandler)

	s := &Server{}
	s.lastScope.Store("")
	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, func(w http.ResponseWriter, r *http.Request) {
		s.exchanges.Add(1)
		s.lastScope.Store(r.FormValue("scope"))
		if err := srv.HandleTokenRequest(w, r); err != nil {
			t.Errorf("fakeauth: handle token request: %v", err)
		}
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// TokenURL returns the absolute token endpoint URL.
func (s *Server) TokenURL() string {
	return s.URL + TokenPath
}

// Exchanges returns how many grant requests the server received.
func (s *Server) Exchanges() int {
	return int(s.exchanges.Load())
}

// LastScope returns the scope sent with the most recent grant request.
func (s *Server) LastScope() string {
	return s.lastScope.Load().(string)
}
