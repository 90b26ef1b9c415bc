// Package backend is the client for the catalog REST backend that owns
// categories, brands, products, reference data and uploaded assets.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/catalog-admin/pkg/httpclient"
	"github.com/utafrali/catalog-admin/pkg/logger"
	"github.com/utafrali/catalog-admin/pkg/middleware"
)

// ServiceName labels errors and metrics for backend calls.
const ServiceName = "catalog-backend"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 16 << 20

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client calls the catalog backend. GET requests are retried by the
// underlying httpclient; mutations are sent once.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
}

type pageBody[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
}

// send performs the request and returns the body of a 2xx response.
// Non-2xx responses and transport failures become AppErrors.
func (c *Client) send(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := middleware.BearerTokenFromContext(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationHeader, id)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.WarnContext(ctx, "backend request failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
		return nil, httpclient.FromError(err, ServiceName)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, ServiceName)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return raw, nil
}

// getJSON fetches path and decodes the data into dst.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	raw, err := c.send(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return err
	}
	if err := decodeData(raw, dst); err != nil {
		return fmt.Errorf("decode GET %s response: %w", path, err)
	}
	return nil
}

// sendJSON sends in as a JSON body and decodes the response into dst when
// dst is not nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, in, dst any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	raw, err := c.send(ctx, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	if dst == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeData(raw, dst); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeData accepts both {"data": ...} envelopes and bare bodies.
func decodeData(raw []byte, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return json.Unmarshal(env.Data, dst)
		}
	}
	return json.Unmarshal(trimmed, dst)
}

// decodePage reads a paginated body. A bare array is a single page.
func decodePage[T any](raw []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, err
		}
		return Page[T]{Items: items, TotalCount: len(items), Page: 1, PerPage: len(items)}, nil
	}

	var body pageBody[T]
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return Page[T]{}, err
	}
	total := body.TotalCount
	if total == 0 {
		total = body.Total
	}
	if total == 0 {
		total = len(body.Data)
	}
	return Page[T]{Items: body.Data, TotalCount: total, Page: body.Page, PerPage: body.PerPage}, nil
}

func listPage[T any](ctx context.Context, c *Client, path string, q url.Values) (Page[T], error) {
	raw, err := c.send(ctx, http.MethodGet, path, q, nil, "")
	if err != nil {
		return Page[T]{}, err
	}
	page, err := decodePage[T](raw)
	if err != nil {
		return Page[T]{}, fmt.Errorf("decode GET %s page: %w", path, err)
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}
