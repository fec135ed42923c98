// Package openfoodfacts looks product names up by barcode on Open Food Facts.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/lastbite-ai/lastbite-backend/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL              = "https://world.openfoodfacts.org"
	defaultTimeout              = 5 * time.Second
	userAgent                   = "lastbite-backend/1.0"
	responseBodyReadLimit int64 = 1024
)

// Client queries the Open Food Facts product API. Concurrent lookups of one barcode share a call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	group      singleflight.Group
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout bounds every lookup.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// ProductInfo is what Open Food Facts knows about a barcode.
type ProductInfo struct {
	Barcode    string
	Name       string
	Categories []string
}

// LookupBarcode returns the product for barcode, or nil when Open Food Facts does not know it.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*ProductInfo, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "open food facts client not configured")
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	// The shared call outlives any one caller; each caller stops waiting on its own context.
	ch := c.group.DoChan(barcode, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout())
		defer cancel()
		return c.fetch(fetchCtx, barcode)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, ctx.Err(), "product lookup timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "product lookup canceled")
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	info, _ := res.Val.(*ProductInfo)
	if info == nil {
		return nil, nil
	}
	copied := *info
	return &copied, nil
}

func (c *Client) timeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultTimeout
}

func (c *Client) fetch(ctx context.Context, barcode string) (*ProductInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build product lookup request")
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstreamTimeout, err, "product lookup timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute product lookup request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "product lookup failed")
	}

	var apiResp struct {
		Status  int `json:"status"`
		Product struct {
			ProductName   string   `json:"product_name"`
			CategoriesTag []string `json:"categories_tags"`
		} `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product lookup response")
	}
	if apiResp.Status != 1 {
		return nil, nil
	}

	return &ProductInfo{
		Barcode:    barcode,
		Name:       strings.TrimSpace(apiResp.Product.ProductName),
		Categories: apiResp.Product.CategoriesTag,
	}, nil
}
