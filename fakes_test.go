package ninjarmm

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	testClientID     = "test_client_id"
	testClientSecret = "test_client_secret"
	testScope        = "monitoring"
)

var baseTime = time.Unix(1000000, 0)

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// fakeSession is a scripted Session that counts exchanges.
type fakeSession struct {
	mu      sync.Mutex
	calls   int
	scopes  []string
	urls    []string
	next    func(n int) (*Token, error)
	release chan struct{}
}

// newFakeSession returns a session issuing fresh uuid tokens valid for ttl
// from the clock's current time.
func newFakeSession(clock *fakeClock, ttl time.Duration) *fakeSession {
	return &fakeSession{
		next: func(int) (*Token, error) {
			return &Token{
				AccessToken: uuid.NewString(),
				TokenType:   "Bearer",
				ExpiresIn:   int64(ttl / time.Second),
				ExpiresAt:   clock.Now().Add(ttl),
				Scope:       testScope,
			}, nil
		},
	}
}

func (s *fakeSession) FetchToken(ctx context.Context, tokenURL, scope string) (*Token, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.scopes = append(s.scopes, scope)
	s.urls = append(s.urls, tokenURL)
	next := s.next
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next(n)
}

func (s *fakeSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSession) Returns(tok *Token, err error) {
	s.mu.Lock()
	s.next = func(int) (*Token, error) { return tok, err }
	s.mu.Unlock()
}

// recordingTransport captures requests and answers with a fixed response.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*Request
	resp     *Response
	err      error
}

func (t *recordingTransport) Request(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.err != nil {
		return nil, t.err
	}
	if t.resp != nil {
		return t.resp, nil
	}
	return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(`{"data":"test"}`)}, nil
}

func (t *recordingTransport) last() *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return t.requests[len(t.requests)-1]
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

func testConfig() *Configuration {
	return &Configuration{
		Host:         "https://test.ninjarmm.com",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		TokenScope:   testScope,
	}
}
