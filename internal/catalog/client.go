package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
)

// Client talks to the remote skips endpoint. It never caches; see Cache.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchCatalog performs exactly one GET /skips/by-location.
func (c *Client) FetchCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("postcode", q.Postcode)
	v.Set("area", q.Area)
	endpoint := c.BaseURL + "/skips/by-location?" + v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &skips.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &skips.TransportError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &skips.NetworkError{Err: err}
	}
	return decodeCatalog(body)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// decodeCatalog menerima hanya JSON array yang tidak kosong.
func decodeCatalog(body []byte) (skips.Catalog, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &skips.EmptyCatalogError{Cause: errors.New("response is not a list")}
	}
	var out skips.Catalog
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, &skips.EmptyCatalogError{Cause: fmt.Errorf("decode: %w", err)}
	}
	if len(out) == 0 {
		return nil, &skips.EmptyCatalogError{}
	}
	return out, nil
}

// "500 Internal Server Error" -> "Internal Server Error"
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
