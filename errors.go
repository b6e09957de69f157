package ninjarmm

import (
	"errors"
	"fmt"
)

// ErrMissingAccessToken is the cause of an AuthExchangeError when the
// authorization server answers without an access_token and the client uses
// StrictTokenResponse.
var ErrMissingAccessToken = errors.New("token response missing access_token")

// ErrUnauthenticated is returned by a Client's TokenSource when the client
// has no OAuth2 credentials.
var ErrUnauthenticated = errors.New("ninjarmm: client has no OAuth2 credentials")

// ConfigurationError indicates invalid or missing client configuration.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "ninjarmm: configuration error"
	}
	return fmt.Sprintf("ninjarmm: configuration error: %s", e.Message)
}

// AuthExchangeError is returned when the client-credentials grant fails.
//
// Err is the underlying cause: a network error, an *oauth2.RetrieveError for
// non-2xx answers from the token endpoint, or ErrMissingAccessToken.
type AuthExchangeError struct {
	TokenURL string
	Err      error
}

func (e *AuthExchangeError) Error() string {
	if e == nil {
		return "ninjarmm: token exchange failed"
	}
	return fmt.Sprintf("ninjarmm: token exchange with %s failed: %v", e.TokenURL, e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// APIStatusError is returned by Do and the typed API methods for non-2xx
// HTTP responses. CallAPI never returns it.
type APIStatusError struct {
	StatusCode   int
	Method       string
	URL          string
	ResponseText string
}

func (e *APIStatusError) Error() string {
	if e == nil {
		return "ninjarmm: api status error"
	}
	if e.ResponseText != "" {
		return fmt.Sprintf("ninjarmm: api error (%d) %s %s: %s", e.StatusCode, e.Method, e.URL, e.ResponseText)
	}
	return fmt.Sprintf("ninjarmm: api error (%d) %s %s", e.StatusCode, e.Method, e.URL)
}
