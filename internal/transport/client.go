package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"

	// maxBodyBytes caps how much of a response is buffered. Roster pages
	// are small; anything larger is a misbehaving backend.
	maxBodyBytes = 4 << 20
)

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type Response struct {
	Status int
	Body   json.RawMessage
}

// Doer executes one logical request/response exchange. Client implements it
// directly; the session layer wraps it with refresh-on-401 behavior.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu     sync.RWMutex
	bearer string
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		log: log,
	}, nil
}

// SetBearerToken attaches an optional Authorization header to every request.
// Cookie credentials are always sent regardless.
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	c.bearer = token
	c.mu.Unlock()
}

func (c *Client) ClearBearerToken() {
	c.SetBearerToken("")
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(requestIDHeader, requestID)

	c.mu.RLock()
	if c.bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	c.mu.RUnlock()

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().
			Str("method", req.Method).
			Str("path", req.Path).
			Str("request_id", requestID).
			Err(err).
			Msg("request failed")
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError(err)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Int("status", httpResp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("http request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &Error{
			Status:  httpResp.StatusCode,
			Message: errorMessage(raw, httpResp.StatusCode),
			Body:    raw,
		}
	}

	return &Response{Status: httpResp.StatusCode, Body: raw}, nil
}

// errorMessage pulls a human-readable message out of a failure body. Backends
// use either "error" or "message" for it.
func errorMessage(raw []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fmt.Sprintf("HTTP error %d", status)
}

// DecodeJSON unmarshals a successful response body.
func DecodeJSON(resp *Response, v any) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
