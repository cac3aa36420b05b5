package upcitemdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.upcitemdb.com"

var ErrNotFound = errors.New("upcitemdb: product not found")

type Product struct {
	Code     string
	Name     string
	Brand    string
	Quantity float64
	Unit     string
	// Category is the provider's breadcrumb, e.g.
	// "Food, Beverages & Tobacco > Food Items > Pasta".
	Category string
}

// Client talks to the trial endpoint unless APIKey is set.
type Client struct {
	BaseURL    string
	APIKey     string
	APIKeyType string
	HTTPClient *http.Client
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, []byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	path := "/prod/trial/lookup"
	if strings.TrimSpace(c.APIKey) != "" {
		path = "/prod/v1/lookup"
	}
	url := fmt.Sprintf("%s%s?upc=%s", base, path, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Product{}, nil, fmt.Errorf("create upcitemdb request: %w", err)
	}
	if strings.TrimSpace(c.APIKey) != "" {
		keyType := strings.TrimSpace(c.APIKeyType)
		if keyType == "" {
			keyType = "3scale"
		}
		req.Header.Set("key_type", keyType)
		req.Header.Set("user_key", strings.TrimSpace(c.APIKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Product{}, nil, fmt.Errorf("execute upcitemdb request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Product{}, nil, fmt.Errorf("read upcitemdb response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, body, fmt.Errorf("%w: %s", ErrNotFound, barcode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Product{}, body, fmt.Errorf("upcitemdb request failed with status %d", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, body, fmt.Errorf("decode upcitemdb response: %w", err)
	}
	if strings.ToUpper(parsed.Code) != "OK" || len(parsed.Items) == 0 {
		return Product{}, body, fmt.Errorf("%w: %s", ErrNotFound, barcode)
	}
	it := parsed.Items[0]
	qty, unit := parseSize(it.Size)
	code := strings.TrimSpace(it.UPC)
	if code == "" {
		code = barcode
	}
	return Product{
		Code:     code,
		Name:     strings.TrimSpace(it.Title),
		Brand:    strings.TrimSpace(it.Brand),
		Quantity: qty,
		Unit:     unit,
		Category: strings.TrimSpace(it.Category),
	}, body, nil
}

// parseSize reads sizes like "16 oz" or "1.5 lbs". Anything else counts as
// one item.
func parseSize(size string) (float64, string) {
	parts := strings.Fields(strings.TrimSpace(size))
	if len(parts) >= 2 {
		if f, err := strconv.ParseFloat(strings.Trim(parts[0], ","), 64); err == nil && f > 0 {
			return f, strings.ToLower(strings.Trim(parts[1], ".,"))
		}
	}
	return 1, "each"
}

type response struct {
	Code  string `json:"code"`
	Items []item `json:"items"`
}

type item struct {
	UPC      string `json:"upc"`
	Title    string `json:"title"`
	Brand    string `json:"brand"`
	Size     string `json:"size"`
	Category string `json:"category"`
}
