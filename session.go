package ninjarmm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Session performs the client-credentials grant exchange.
type Session interface {
	// FetchToken exchanges the session's credentials for a new token at
	// tokenURL. scope may be empty.
	FetchToken(ctx context.Context, tokenURL, scope string) (*Token, error)
}

type formSession struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewFormSession returns the default Session. It posts the credentials as a
// form body and accepts any 2xx JSON answer, including one without an
// access_token.
func NewFormSession(clientID, clientSecret string, httpClient *http.Client) Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &formSession{clientID: clientID, clientSecret: clientSecret, httpClient: httpClient}
}

func (s *formSession) FetchToken(ctx context.Context, tokenURL, scope string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &oauth2.RetrieveError{Response: resp, Body: body}
		var e struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
			ErrorURI         string `json:"error_uri"`
		}
		if json.Unmarshal(body, &e) == nil {
			rerr.ErrorCode = e.Error
			rerr.ErrorDescription = e.ErrorDescription
			rerr.ErrorURI = e.ErrorURI
		}
		return nil, rerr
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &tok, nil
}

type clientCredentialsSession struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClientCredentialsSession returns a Session backed by
// golang.org/x/oauth2/clientcredentials. It rejects token responses that
// lack an access_token.
func NewClientCredentialsSession(clientID, clientSecret string, httpClient *http.Client) Session {
	return &clientCredentialsSession{clientID: clientID, clientSecret: clientSecret, httpClient: httpClient}
}

func (s *clientCredentialsSession) FetchToken(ctx context.Context, tokenURL, scope string) (*Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if scope != "" {
		cfg.Scopes = strings.Fields(scope)
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return nil, err
	}

	out := &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
		ExpiresAt:   tok.Expiry,
	}
	if granted, ok := tok.Extra("scope").(string); ok {
		out.Scope = granted
	}
	return out, nil
}
