// Package client talks to SDTP servers over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/pkg/errors"
)

// Client sends requests to one SDTP server. It may be used concurrently.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	headers    http.Header
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to configure TLS.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithHeader sets a header sent with every request, e.g. for authorization by a proxy.
func WithHeader(key, value string) Option {
	return func(client *Client) {
		client.headers.Set(key, value)
	}
}

// New returns a Client for the server at baseURL, which must be an absolute http or https URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server URL %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid URL scheme %q, must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.Errorf("server URL %q has no host", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: time.Minute},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetFilteredRows fetches the rows of tableName matching filter, which may be nil. If columns is
// empty, all columns are returned.
func (c *Client) GetFilteredRows(ctx context.Context, tableName string, filter *sdtp.FilterSpec, columns []string) (*sdtp.Response, error) {
	req := sdtp.Request{Table: tableName, Columns: columns}
	if filter != nil {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode filter")
		}

		req.Filter = raw
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode request")
	}

	var resp sdtp.Response
	if err := c.do(ctx, http.MethodPost, "/get_filtered_rows", nil, bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// GetTables fetches the columns of every table by table name.
func (c *Client) GetTables(ctx context.Context) (map[string][]sdtp.Column, error) {
	var tables map[string][]sdtp.Column
	if err := c.do(ctx, http.MethodGet, "/get_tables", nil, nil, &tables); err != nil {
		return nil, err
	}

	return tables, nil
}

// GetTable fetches the columns of a single table.
func (c *Client) GetTable(ctx context.Context, tableName string) ([]sdtp.Column, error) {
	tables, err := c.GetTables(ctx)
	if err != nil {
		return nil, err
	}

	columns, ok := tables[tableName]
	if !ok {
		return nil, sdtp.NotFoundErrorf("no table named %q", tableName)
	}

	return columns, nil
}

// GetAllValues fetches the sorted distinct values of a column.
func (c *Client) GetAllValues(ctx context.Context, tableName, column string) ([]any, error) {
	var values []any
	if err := c.do(ctx, http.MethodGet, "/get_all_values", columnQuery(tableName, column), nil, &values); err != nil {
		return nil, err
	}

	return values, nil
}

// GetRangeSpec fetches the smallest and largest value of a column.
func (c *Client) GetRangeSpec(ctx context.Context, tableName, column string) (*sdtp.RangeSpec, error) {
	var spec sdtp.RangeSpec
	if err := c.do(ctx, http.MethodGet, "/get_range_spec", columnQuery(tableName, column), nil, &spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

func columnQuery(tableName, column string) url.Values {
	return url.Values{"table_name": {tableName}, "column_name": {column}}
}

// do sends a request and decodes a successful response into out. Error responses of the
// server are returned as *sdtp.Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, out any) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrap(err, "cannot create request")
	}

	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "cannot %s %s", method, path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		var e sdtp.ErrorResponse
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.ErrorKind == "" {
			return errors.Errorf("unexpected HTTP status code %d from %s", res.StatusCode, path)
		}

		return &sdtp.Error{Kind: e.ErrorKind, Message: e.Message, Path: e.Path}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "cannot decode response of %s", path)
	}

	return nil
}
