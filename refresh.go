package ninjarmm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSkewMargin is how long before the stated expiry a token is renewed.
const DefaultSkewMargin = 60 * time.Second

// NoSkewMargin selects a zero skew margin in Options.SkewMargin, where the
// zero value means DefaultSkewMargin.
const NoSkewMargin time.Duration = -1

// TokenResponsePolicy selects how a grant response without access_token is
// handled.
type TokenResponsePolicy int

const (
	// LenientTokenResponse stores the response as the current record and
	// clears the configured access token. The next API call goes out
	// unauthenticated.
	LenientTokenResponse TokenResponsePolicy = iota

	// StrictTokenResponse fails the exchange with an AuthExchangeError
	// wrapping ErrMissingAccessToken and keeps the previous record.
	StrictTokenResponse
)

// AuthState is the authentication lifecycle state of a Client.
type AuthState int

const (
	// Unauthenticated clients have no credentials and never leave this state.
	Unauthenticated AuthState = iota
	// TokenAbsent means OAuth2 is configured but no token was fetched yet.
	TokenAbsent
	// TokenValid means the held token is outside the skew margin.
	TokenValid
	// TokenExpiring means the held token is within the skew margin or past
	// its expiry.
	TokenExpiring
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case TokenAbsent:
		return "token_absent"
	case TokenValid:
		return "token_valid"
	case TokenExpiring:
		return "token_expiring"
	default:
		return "unknown"
	}
}

// tokenRefresher owns the current token record. The mutex serialises the
// check-then-fetch sequence; readers load the record without locking.
type tokenRefresher struct {
	session  Session
	tokenURL string
	scope    string
	skew     time.Duration
	now      func() time.Time
	policy   TokenResponsePolicy
	config   *Configuration
	logger   *zerolog.Logger

	mu      sync.Mutex
	current atomic.Pointer[Token]
}

// token returns a copy of the current record so callers cannot alter it.
func (r *tokenRefresher) token() *Token {
	return r.current.Load().clone()
}

func (r *tokenRefresher) state() AuthState {
	if r.session == nil {
		return Unauthenticated
	}
	tok := r.current.Load()
	if tok == nil {
		return TokenAbsent
	}
	if tok.Expiring(r.now(), r.skew) {
		return TokenExpiring
	}
	return TokenValid
}

// ensureFresh fetches a token when none is held or the held one is within
// the skew margin. It is a no-op without a session or token endpoint.
func (r *tokenRefresher) ensureFresh(ctx context.Context) error {
	if r.session == nil || r.tokenURL == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tok := r.current.Load(); tok != nil && !tok.Expiring(r.now(), r.skew) {
		return nil
	}
	return r.fetch(ctx)
}

// fetch runs one grant exchange. Callers hold r.mu.
func (r *tokenRefresher) fetch(ctx context.Context) error {
	r.logger.Debug().Str("token_url", r.tokenURL).Str("scope", r.scope).Msg("fetching access token")

	issued := r.now()
	tok, err := r.session.FetchToken(ctx, r.tokenURL, r.scope)
	if err != nil {
		r.logger.Err(err).Str("token_url", r.tokenURL).Msg("token exchange failed")
		return &AuthExchangeError{TokenURL: r.tokenURL, Err: err}
	}
	if tok == nil {
		tok = &Token{}
	}

	if !tok.HasAccessToken() {
		if r.policy == StrictTokenResponse {
			r.logger.Error().Str("token_url", r.tokenURL).Msg("token response missing access_token")
			return &AuthExchangeError{TokenURL: r.tokenURL, Err: ErrMissingAccessToken}
		}
		r.logger.Warn().Str("token_url", r.tokenURL).Msg("token response missing access_token; continuing unauthenticated")
	}

	tok = tok.issuedAt(issued)
	r.current.Store(tok)
	r.config.setAccessToken(tok.AccessToken)

	r.logger.Debug().Time("expires_at", tok.ExpiresAt).Msg("access token stored")
	return nil
}
