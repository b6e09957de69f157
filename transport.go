package ninjarmm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one outbound API call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values

	// Body is encoded by type: nil sends no body, string and []byte are sent
	// as-is, url.Values as a form, io.Reader is streamed, anything else is
	// marshaled as JSON.
	Body any
}

// Response is a raw API response. The body is fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport performs raw HTTP requests for a Client.
type Transport interface {
	Request(ctx context.Context, req *Request) (*Response, error)
}

type restTransport struct {
	httpClient *http.Client
}

// NewRESTTransport returns a Transport backed by httpClient. Non-2xx
// responses are returned, not turned into errors.
func NewRESTTransport(httpClient *http.Client) Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &restTransport{httpClient: httpClient}
}

func (t *restTransport) Request(ctx context.Context, r *Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	reqURL, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		q := reqURL.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		reqURL.RawQuery = q.Encode()
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.Header {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	case url.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}
