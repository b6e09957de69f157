package ninjarmm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRESTTransport_EncodesBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		_, _ = w.Write(b)
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name        string
		body        any
		wantType    string
		wantPayload string
	}{
		{name: "none", body: nil, wantType: "", wantPayload: ""},
		{name: "string", body: "hello", wantType: "text/plain", wantPayload: "hello"},
		{name: "bytes", body: []byte{1, 2}, wantType: "application/octet-stream", wantPayload: "\x01\x02"},
		{name: "form", body: url.Values{"a": {"b"}}, wantType: "application/x-www-form-urlencoded", wantPayload: "a=b"},
		{name: "reader", body: strings.NewReader("stream"), wantType: "application/octet-stream", wantPayload: "stream"},
		{name: "json", body: map[string]int{"n": 1}, wantType: "application/json", wantPayload: `{"n":1}`},
	}

	tr := NewRESTTransport(srv.Client())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tr.Request(context.Background(), &Request{Method: http.MethodPost, URL: srv.URL, Body: tt.body})
			require.NoError(t, err)
			require.Equal(t, tt.wantType, resp.Header.Get("X-Content-Type"))
			require.Equal(t, tt.wantPayload, string(resp.Body))
		})
	}
}

func TestRESTTransport_MergesQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("df") != "org=1" || r.URL.Query().Get("pageSize") != "3" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Accept") != "text/csv" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	resp, err := NewRESTTransport(srv.Client()).Request(context.Background(), &Request{
		Method: http.MethodGet,
		URL:    srv.URL + "/v2/devices?df=org%3D1",
		Header: http.Header{"Accept": {"text/csv"}},
		Query:  url.Values{"pageSize": {"3"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestRESTTransport_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewRESTTransport(nil).Request(context.Background(), &Request{Method: http.MethodGet, URL: addr})
	require.Error(t, err)
}

func TestRESTTransport_BadJSONBody(t *testing.T) {
	_, err := NewRESTTransport(nil).Request(context.Background(), &Request{Method: http.MethodPost, URL: "http://127.0.0.1", Body: make(chan int)})
	require.ErrorContains(t, err, "marshal request body")
}
