package ninjarmm

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Token is an OAuth2 token record as returned by the token endpoint.
//
// A stored Token is never modified; a refresh replaces it with a new value and
// Client.Token hands out copies.
type Token struct {
	// AccessToken is the bearer value. Empty when the server omitted it.
	AccessToken string
	TokenType   string
	Scope       string

	// ExpiresIn is the validity in seconds from issue, as sent by the server.
	ExpiresIn int64

	// ExpiresAt is the absolute expiry. It is derived from ExpiresIn at the
	// time of the exchange when the server does not send expires_at.
	ExpiresAt time.Time

	// Extra holds response fields not mapped above.
	Extra map[string]any
}

// HasAccessToken reports whether the record carries a bearer value.
func (t *Token) HasAccessToken() bool {
	return t != nil && t.AccessToken != ""
}

// Expiring reports whether the token must be renewed at now when renewals
// start skew before the stated expiry. A token without an expiry is always
// expiring.
func (t *Token) Expiring(now time.Time, skew time.Duration) bool {
	if t == nil || t.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(t.ExpiresAt.Add(-skew))
}

// OAuth2 converts the record to an *oauth2.Token. The skew is not applied.
func (t *Token) OAuth2() *oauth2.Token {
	if t == nil {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.ExpiresAt,
		ExpiresIn:   t.ExpiresIn,
	}
	raw := make(map[string]any, len(t.Extra)+1)
	for k, v := range t.Extra {
		raw[k] = v
	}
	if t.Scope != "" {
		raw["scope"] = t.Scope
	}
	return tok.WithExtra(raw)
}

func (t *Token) clone() *Token {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Extra = maps.Clone(t.Extra)
	return &cp
}

// issuedAt returns a copy of t whose ExpiresAt is filled from ExpiresIn
// relative to issue time when the server did not send an absolute expiry.
func (t *Token) issuedAt(issued time.Time) *Token {
	cp := *t
	if cp.ExpiresAt.IsZero() && cp.ExpiresIn > 0 {
		cp.ExpiresAt = issued.Add(time.Duration(cp.ExpiresIn) * time.Second)
	}
	return &cp
}

func (t *Token) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Token{}
	for k, v := range raw {
		switch k {
		case "access_token":
			out.AccessToken, _ = v.(string)
		case "token_type":
			out.TokenType, _ = v.(string)
		case "scope":
			out.Scope, _ = v.(string)
		case "expires_in":
			secs, err := numberField(k, v)
			if err != nil {
				return err
			}
			out.ExpiresIn = int64(secs)
		case "expires_at":
			secs, err := numberField(k, v)
			if err != nil {
				return err
			}
			if secs > 0 {
				whole, frac := math.Modf(secs)
				out.ExpiresAt = time.Unix(int64(whole), int64(frac*1e9))
			}
		default:
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra[k] = v
		}
	}
	*t = out
	return nil
}

// numberField accepts JSON numbers, numeric strings and null.
func numberField(name string, v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case string:
		if n == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("token field %s: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("token field %s: unexpected type %T", name, v)
	}
}
