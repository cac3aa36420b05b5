package openfoodfacts

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

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "mealplan/1.0 (+https://github.com/chasemp/mealplanner)"
	productFields  = "code,product_name,brands,quantity,product_quantity,product_quantity_unit,categories_tags"
)

var ErrNotFound = errors.New("openfoodfacts: product not found")

// Product is the pantry-relevant subset of an Open Food Facts product.
type Product struct {
	Code     string
	Name     string
	Brand    string
	Quantity float64
	Unit     string
	// Categories are taxonomy tags with the language prefix removed,
	// most general first.
	Categories []string
}

type Client struct {
	BaseURL    string
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
	url := fmt.Sprintf("%s/api/v2/product/%s.json?fields=%s", base, barcode, productFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Product{}, nil, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return Product{}, nil, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Product{}, nil, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, body, fmt.Errorf("%w: %s", ErrNotFound, barcode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Product{}, body, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, body, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, body, fmt.Errorf("%w: %s", ErrNotFound, barcode)
	}

	p := parsed.Product
	qty, unit := parseQuantity(p)
	code := strings.TrimSpace(p.Code)
	if code == "" {
		code = barcode
	}
	return Product{
		Code:       code,
		Name:       strings.TrimSpace(p.ProductName),
		Brand:      firstBrand(p.Brands),
		Quantity:   qty,
		Unit:       unit,
		Categories: stripLanguage(p.CategoriesTags),
	}, body, nil
}

func parseQuantity(p offProduct) (float64, string) {
	if v, ok := parseFloatAny(p.ProductQuantity); ok && v > 0 {
		unit := strings.ToLower(strings.TrimSpace(p.ProductQuantityUnit))
		if unit == "" {
			unit = "g"
		}
		return v, unit
	}
	// free text such as "500 g" or "1,5 l"
	fields := strings.Fields(strings.TrimSpace(p.Quantity))
	if len(fields) >= 2 {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64); err == nil && v > 0 {
			return v, strings.ToLower(fields[1])
		}
	}
	return 1, "each"
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}

func stripLanguage(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, rest, ok := strings.Cut(tag, ":"); ok {
			tag = rest
		}
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	Code                string   `json:"code"`
	ProductName         string   `json:"product_name"`
	Brands              string   `json:"brands"`
	Quantity            string   `json:"quantity"`
	ProductQuantity     any      `json:"product_quantity"`
	ProductQuantityUnit string   `json:"product_quantity_unit"`
	CategoriesTags      []string `json:"categories_tags"`
}
