// Package servingclient is a typed client for the customers invocations API.
//
// Requests travel in the dataframe_split envelope the serving endpoint
// expects; responses unwrap the single prediction into a Page.
package servingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// splitColumns is the fixed column order of the request frame.
var splitColumns = []string{"select_csv", "filters_json", "sort_json", "limit", "cursor"}

// Config configures a Client.
type Config struct {
	BaseURL     string // e.g. https://host/serving-endpoints/customers
	BearerToken string
	Timeout     time.Duration
	UserAgent   string
}

// Client calls the invocations endpoint.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a client with the given configuration.
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "data-api-serving-client/1.0"
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Query selects one page worth of customers.
type Query struct {
	Select  string         // comma-separated public columns; empty means the default projection
	Filters map[string]any // filter keys as the endpoint defines them
	Limit   int            // zero means the endpoint default
	Cursor  string         // resume token from a previous page
}

// Page is one page of results.
type Page struct {
	Count      int              `json:"count"`
	Items      []map[string]any `json:"items"`
	NextCursor *string          `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

// HTTPError is a non-2xx response from the endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Page fetches a single page.
func (c *Client) Page(ctx context.Context, q Query) (*Page, error) {
	payload, err := q.payload()
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/invocations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope struct {
		Predictions []Page `json:"predictions"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Predictions) == 0 {
		return nil, fmt.Errorf("response carried no predictions")
	}
	return &envelope.Predictions[0], nil
}

// payload renders the dataframe_split envelope. A missing cursor travels as
// null, matching a first-page call.
func (q Query) payload() ([]byte, error) {
	filtersJSON := "{}"
	if len(q.Filters) > 0 {
		b, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("marshal filters: %w", err)
		}
		filtersJSON = string(b)
	}

	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}
	var cursor any
	if q.Cursor != "" {
		cursor = q.Cursor
	}

	return json.Marshal(map[string]any{
		"dataframe_split": map[string]any{
			"columns": splitColumns,
			"data":    [][]any{{q.Select, filtersJSON, "[]", limit, cursor}},
		},
	})
}

// Pager walks a query page by page until the endpoint reports no more rows.
type Pager struct {
	client  *Client
	query   Query
	current *Page
	done    bool
	err     error
}

// Pages returns a pager positioned before the first page.
func (c *Client) Pages(q Query) *Pager {
	return &Pager{client: c, query: q}
}

// Next fetches the next page. It returns false once the walk is finished or
// an error occurred; check Err afterwards.
func (p *Pager) Next(ctx context.Context) bool {
	if p.done || p.err != nil {
		return false
	}
	page, err := p.client.Page(ctx, p.query)
	if err != nil {
		p.err = err
		return false
	}
	p.current = page
	if page.HasMore && page.NextCursor != nil {
		p.query.Cursor = *page.NextCursor
	} else {
		p.done = true
	}
	return true
}

// Page returns the page fetched by the last successful Next.
func (p *Pager) Page() *Page {
	return p.current
}

// Err returns the error that stopped the walk, if any.
func (p *Pager) Err() error {
	return p.err
}

// All drains the pager and returns every item.
func (p *Pager) All(ctx context.Context) ([]map[string]any, error) {
	var items []map[string]any
	for p.Next(ctx) {
		items = append(items, p.Page().Items...)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
