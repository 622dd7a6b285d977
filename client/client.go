// Package client talks to the billing backend: product search and invoice
// submission, carrying the csrftoken cookie between requests.
package client

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
	"time"

	"billingDesk/models"

	"go.uber.org/zap"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
	searchPath     = "/search/products/"
)

// Client is an HTTP client for the billing backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client rooted at baseURL. A zero timeout means requests
// wait until their context is done.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid billing url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid billing url %q: scheme and host required", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// Resolve turns a page path into an absolute URL on the backend.
func (c *Client) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	return c.baseURL.ResolveReference(ref).String()
}

// CSRFToken returns the csrftoken cookie the backend handed out, if any.
func (c *Client) CSRFToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// OpenPage loads a page so the backend can set its cookies.
func (c *Client) OpenPage(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Resolve(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open page %s: %w: %v", path, models.ErrTransport, err)
	}
	defer c.closeBody(resp)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open page %s: %w: status %d", path, models.ErrTransport, resp.StatusCode)
	}
	return nil
}

// SearchProducts runs GET /search/products/?q=<query>.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]models.SearchResult, error) {
	target := c.Resolve(searchPath) + "?q=" + EncodeURIComponent(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w: %v", query, models.ErrTransport, err)
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: %w: status %d", query, models.ErrTransport, resp.StatusCode)
	}
	var out models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search %q: %w: %v", query, models.ErrTransport, err)
	}
	if out.Results == nil {
		out.Results = []models.SearchResult{}
	}
	return out.Results, nil
}

// SubmitInvoice POSTs the invoice to pageURL. Any decodable JSON reply is
// returned as is, whatever the status code; an undecodable one is a transport error.
func (c *Client) SubmitInvoice(ctx context.Context, pageURL string, invoice models.InvoiceRequest) (models.InvoiceResponse, error) {
	var out models.InvoiceResponse

	body, err := json.Marshal(invoice)
	if err != nil {
		return out, fmt.Errorf("failed to marshal invoice: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Resolve(pageURL), bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.CSRFToken(); token != "" {
		req.Header.Set(CSRFHeaderName, token)
	} else {
		c.logger.Warn("no csrftoken cookie, submitting without token")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("submit invoice: %w: %v", models.ErrTransport, err)
	}
	defer c.closeBody(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("submit invoice: %w: %v", models.ErrTransport, err)
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return out, fmt.Errorf("submit invoice: %w: status %d: %v", models.ErrTransport, resp.StatusCode, err)
	}
	return out, nil
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn("failed to close response body", zap.Error(err))
	}
}

// EncodeURIComponent escapes s like the browser function of the same name.
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}
