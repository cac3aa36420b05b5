package openfoodfacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookupBarcodeParsesProduct(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "code": "8076800195057",
    "product_name": "Spaghetti n.5",
    "brands": "Barilla, Barilla Group",
    "quantity": "500 g",
    "product_quantity": "500",
    "product_quantity_unit": "g",
    "categories_tags": ["en:plant-based-foods", "en:cereals-and-potatoes", "en:pastas"]
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	got, raw, err := c.LookupBarcode(context.Background(), "8076800195057")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	want := Product{
		Code:       "8076800195057",
		Name:       "Spaghetti n.5",
		Brand:      "Barilla",
		Quantity:   500,
		Unit:       "g",
		Categories: []string{"plant-based-foods", "cereals-and-potatoes", "pastas"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("product mismatch (-want +got):\n%s", diff)
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw body to be returned")
	}
	if gotPath != "/api/v2/product/8076800195057.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.HasPrefix(gotAgent, "mealplan/") {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
}

func TestLookupBarcodeFallsBackToFreeTextQuantity(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Milk","quantity":"1,5 L"}}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	got, _, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if got.Quantity != 1.5 || got.Unit != "l" || got.Code != "12345678" {
		t.Fatalf("unexpected product: %+v", got)
	}
}

func TestLookupBarcodeNotFound(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.LookupBarcode(context.Background(), "00000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupBarcodeServerError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	_, _, err := c.LookupBarcode(context.Background(), "12345678")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected status error, got %v", err)
	}
}
