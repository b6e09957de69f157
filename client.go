package ninjarmm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultTokenPath is the token endpoint path under Configuration.Host.
const DefaultTokenPath = "/ws/oauth/token"

// Options configure a Client.
type Options struct {
	// TokenURL is the OAuth2 token endpoint. Defaults to Host + DefaultTokenPath.
	TokenURL string

	// SkewMargin is subtracted from a token's expiry when judging whether it
	// is still usable. Zero means DefaultSkewMargin; use NoSkewMargin to
	// renew only at the stated expiry. Other negative values are rejected.
	SkewMargin time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// HTTPClient is used by the default Transport and Session. Defaults to a
	// client with a 30s timeout.
	HTTPClient *http.Client

	// Transport performs API requests. Defaults to NewRESTTransport(HTTPClient).
	Transport Transport

	// Session performs the grant exchange. Defaults to NewFormSession with the
	// configured credentials. Ignored when no credentials are configured.
	Session Session

	// TokenResponsePolicy decides how a token response without access_token
	// is handled. Defaults to LenientTokenResponse.
	TokenResponsePolicy TokenResponsePolicy

	// Logger receives debug and error events. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Client dispatches authenticated requests to the NinjaOne API.
//
// A Client is safe for concurrent use.
type Client struct {
	config    *Configuration
	baseURL   *url.URL
	transport Transport
	auth      *tokenRefresher
	logger    *zerolog.Logger
}

// NewClient constructs a new Client. No network call is made; the first
// token is fetched on first use.
//
// Returns ConfigurationError if the host is missing or invalid, or if only
// one of the client ID and secret is set.
func NewClient(cfg *Configuration, opts Options) (*Client, error) {
	if cfg == nil {
		return nil, &ConfigurationError{Message: "configuration is required"}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, &ConfigurationError{Message: "host is required"}
	}
	parsed, err := url.Parse(host)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &ConfigurationError{Message: fmt.Sprintf("invalid host %q", host)}
	}

	oauthEnabled, err := cfg.oauthEnabled()
	if err != nil {
		return nil, err
	}
	skew := opts.SkewMargin
	switch {
	case skew == NoSkewMargin:
		skew = 0
	case skew < 0:
		return nil, &ConfigurationError{Message: "skew margin must not be negative"}
	case skew == 0:
		skew = DefaultSkewMargin
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	transport := opts.Transport
	if transport == nil {
		transport = NewRESTTransport(hc)
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		config:    cfg,
		baseURL:   parsed,
		transport: transport,
		logger:    logger,
	}

	refresher := &tokenRefresher{
		skew:   skew,
		now:    now,
		policy: opts.TokenResponsePolicy,
		config: cfg,
		logger: logger,
	}
	if oauthEnabled {
		refresher.session = opts.Session
		if refresher.session == nil {
			refresher.session = NewFormSession(cfg.ClientID, cfg.ClientSecret, hc)
		}
		refresher.tokenURL = strings.TrimSpace(opts.TokenURL)
		if refresher.tokenURL == "" {
			refresher.tokenURL = c.resolveURL(&url.URL{Path: DefaultTokenPath}).String()
		}
		refresher.scope = strings.TrimSpace(cfg.TokenScope)
	}
	c.auth = refresher

	return c, nil
}

// Configuration returns the configuration the client was built from.
func (c *Client) Configuration() *Configuration {
	return c.config
}

// Token returns the current token record, or nil before the first fetch.
func (c *Client) Token() *Token {
	return c.auth.token()
}

// AuthState reports where the client is in its authentication lifecycle.
func (c *Client) AuthState() AuthState {
	return c.auth.state()
}

// EnsureFreshToken fetches a token if none is held or the held one is within
// the skew margin of expiry. It does nothing for unauthenticated clients.
//
// Exchange failures are returned as *AuthExchangeError and are not retried.
func (c *Client) EnsureFreshToken(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.auth.ensureFresh(ctx)
}

// TokenSource returns an oauth2.TokenSource backed by the client's token
// record, for use with oauth2.NewClient or oauth2.Transport.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &clientTokenSource{ctx: ctx, client: c}
}

type clientTokenSource struct {
	ctx    context.Context
	client *Client
}

func (s *clientTokenSource) Token() (*oauth2.Token, error) {
	if s.client.AuthState() == Unauthenticated {
		return nil, ErrUnauthenticated
	}
	if err := s.client.EnsureFreshToken(s.ctx); err != nil {
		return nil, err
	}
	tok := s.client.Token()
	if !tok.HasAccessToken() {
		return nil, &AuthExchangeError{TokenURL: s.client.auth.tokenURL, Err: ErrMissingAccessToken}
	}
	return tok.OAuth2(), nil
}

// CallAPI sends a request and returns the raw response.
//
// rawURL may be absolute or a path relative to the configured host. The token
// is refreshed first if needed, and "Authorization: Bearer <token>" is added
// unless headers already carry an Authorization entry.
//
// Non-2xx responses are returned as-is. Transport errors are returned
// unchanged.
func (c *Client) CallAPI(ctx context.Context, method, rawURL string, headers map[string]string, query url.Values, body any) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := c.EnsureFreshToken(ctx); err != nil {
		return nil, err
	}

	h := http.Header{}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		h.Set(k, v)
	}
	if token := c.config.AccessToken(); token != "" && h.Get("Authorization") == "" {
		h.Set("Authorization", "Bearer "+token)
	}

	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && !u.IsAbs() {
		target = c.resolveURL(u).String()
	}

	resp, err := c.transport.Request(ctx, &Request{
		Method: method,
		URL:    target,
		Header: h,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("method", method).Str("url", target).Int("status", resp.StatusCode).Msg("api call")
	return resp, nil
}

// Do makes a JSON request to the NinjaOne API.
//
// out is decoded from JSON when non-nil. For non-2xx responses an
// *APIStatusError is returned.
func (c *Client) Do(ctx context.Context, method, apiPath string, query url.Values, body any, headers map[string]string, out any) error {
	resp, err := c.CallAPI(ctx, method, apiPath, headers, query, body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIStatusError{
			StatusCode:   resp.StatusCode,
			Method:       method,
			URL:          c.statusURL(apiPath, query),
			ResponseText: strings.TrimSpace(string(resp.Body)),
		}
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}

// resolveURL places a relative reference under the configured host. The
// escaped path is appended to the host's path as written, with no dot-segment
// removal. Protocol-relative references keep their own host and take the
// configured scheme.
func (c *Client) resolveURL(ref *url.URL) *url.URL {
	if ref.Host != "" {
		out := *ref
		out.Scheme = c.baseURL.Scheme
		return &out
	}

	escaped := ref.EscapedPath()
	if !strings.HasPrefix(escaped, "/") {
		escaped = "/" + escaped
	}
	escaped = strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + escaped

	out := url.URL{
		Scheme:   c.baseURL.Scheme,
		User:     c.baseURL.User,
		Host:     c.baseURL.Host,
		RawQuery: ref.RawQuery,
	}
	if p, err := url.PathUnescape(escaped); err == nil {
		out.Path = p
		out.RawPath = escaped
	} else {
		out.Path = escaped
	}
	return &out
}

// statusURL renders the request target for error messages.
func (c *Client) statusURL(apiPath string, query url.Values) string {
	u, err := url.Parse(apiPath)
	if err != nil {
		return apiPath
	}
	if !u.IsAbs() {
		u = c.resolveURL(u)
	}
	if len(query) > 0 {
		merged := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String()
}
