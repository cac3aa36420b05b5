package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chasemp/mealplanner/internal/logging"
	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/provider/openfoodfacts"
	"github.com/chasemp/mealplanner/internal/provider/upcitemdb"
)

const (
	BarcodeProviderOpenFoodFacts = "openfoodfacts"
	BarcodeProviderUPCItemDB     = "upcitemdb"
	defaultBarcodeTTL            = 30 * 24 * time.Hour
	defaultBarcodeTimeout        = 15 * time.Second
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// DefaultBarcodeProviders is the fallback order used when none is configured.
var DefaultBarcodeProviders = []string{BarcodeProviderOpenFoodFacts, BarcodeProviderUPCItemDB}

type BarcodeProduct struct {
	Provider string  `json:"provider"`
	Barcode  string  `json:"barcode"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	// Category is the suggested ingredient category.
	Category    string   `json:"category"`
	FromCache   bool     `json:"from_cache"`
	LookupTrail []string `json:"lookup_trail,omitempty"`
}

type BarcodeOptions struct {
	Providers        []string
	OpenFoodFactsURL string
	UPCItemDBURL     string
	UPCItemDBKey     string
	HTTPClient       *http.Client
	Timeout          time.Duration
	// Refresh skips cached results and overwrites them.
	Refresh bool
	Logger  *zap.Logger
	Now     func() time.Time
}

func (o BarcodeOptions) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

type productClient interface {
	lookup(ctx context.Context, barcode string) (BarcodeProduct, []byte, error)
}

func isValidBarcode(barcode string) bool {
	return barcodePattern.MatchString(barcode)
}

func normalizeBarcodeProvider(provider string) string {
	switch p := strings.ToLower(strings.TrimSpace(provider)); p {
	case "off", BarcodeProviderOpenFoodFacts:
		return BarcodeProviderOpenFoodFacts
	case "upc", BarcodeProviderUPCItemDB:
		return BarcodeProviderUPCItemDB
	default:
		return p
	}
}

func clientFor(provider string, opts BarcodeOptions) (productClient, error) {
	switch provider {
	case BarcodeProviderOpenFoodFacts:
		return offAdapter{client: &openfoodfacts.Client{BaseURL: opts.OpenFoodFactsURL, HTTPClient: opts.HTTPClient}}, nil
	case BarcodeProviderUPCItemDB:
		return upcAdapter{client: &upcitemdb.Client{BaseURL: opts.UPCItemDBURL, APIKey: opts.UPCItemDBKey, HTTPClient: opts.HTTPClient}}, nil
	default:
		return nil, fmt.Errorf("unsupported barcode provider %q", provider)
	}
}

// LookupBarcode tries each provider in order, serving unexpired cache rows
// first, and caches the first successful remote answer.
func LookupBarcode(ctx context.Context, db *sql.DB, barcode string, opts BarcodeOptions) (BarcodeProduct, error) {
	log := logging.OrNop(opts.Logger)
	barcode = strings.TrimSpace(barcode)
	if !isValidBarcode(barcode) {
		return BarcodeProduct{}, fmt.Errorf("invalid barcode %q (expected 8-14 digits)", barcode)
	}
	providers := opts.Providers
	if len(providers) == 0 {
		providers = DefaultBarcodeProviders
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultBarcodeTimeout
	}

	trail := make([]string, 0, len(providers))
	errs := make([]error, 0, len(providers))
	for _, raw := range providers {
		provider := normalizeBarcodeProvider(raw)
		if provider == "" {
			continue
		}
		trail = append(trail, provider)
		client, err := clientFor(provider, opts)
		if err != nil {
			return BarcodeProduct{}, err
		}

		if !opts.Refresh {
			cached, found, err := lookupBarcodeCache(db, provider, barcode, opts.now())
			if err != nil {
				return BarcodeProduct{}, err
			}
			if found {
				cached.FromCache = true
				cached.LookupTrail = trail
				log.Debug("barcode cache hit", zap.String("provider", provider), zap.String("barcode", barcode))
				return cached, nil
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		product, body, err := client.lookup(callCtx, barcode)
		cancel()
		if err != nil {
			log.Warn("barcode provider failed", zap.String("provider", provider), zap.String("barcode", barcode), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", provider, err))
			continue
		}
		product.Provider = provider
		product.Barcode = barcode
		product.LookupTrail = trail
		if err := upsertBarcodeCache(db, product, body, opts.now()); err != nil {
			return BarcodeProduct{}, err
		}
		log.Info("barcode resolved", zap.String("provider", provider), zap.String("barcode", barcode), zap.String("name", product.Name))
		return product, nil
	}
	if len(errs) == 0 {
		return BarcodeProduct{}, fmt.Errorf("no lookup providers configured")
	}
	return BarcodeProduct{}, fmt.Errorf("lookup failed for %q: %w", barcode, errors.Join(errs...))
}

func lookupBarcodeCache(db *sql.DB, provider, barcode string, now time.Time) (BarcodeProduct, bool, error) {
	var p BarcodeProduct
	err := db.QueryRow(`
SELECT provider, barcode, name, brand, quantity, unit, category
FROM barcode_cache
WHERE provider = ? AND barcode = ? AND expires_at > ?
`, provider, barcode, now.Format(time.RFC3339)).Scan(&p.Provider, &p.Barcode, &p.Name, &p.Brand, &p.Quantity, &p.Unit, &p.Category)
	if err == sql.ErrNoRows {
		return BarcodeProduct{}, false, nil
	}
	if err != nil {
		return BarcodeProduct{}, false, fmt.Errorf("read barcode cache: %w", err)
	}
	return p, true, nil
}

func upsertBarcodeCache(db *sql.DB, p BarcodeProduct, raw []byte, now time.Time) error {
	_, err := db.Exec(`
INSERT INTO barcode_cache(provider, barcode, name, brand, quantity, unit, category, raw_json, fetched_at, expires_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, barcode) DO UPDATE SET
  name = excluded.name, brand = excluded.brand, quantity = excluded.quantity, unit = excluded.unit,
  category = excluded.category, raw_json = excluded.raw_json, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at
`, p.Provider, p.Barcode, p.Name, p.Brand, p.Quantity, p.Unit, p.Category, string(raw),
		now.Format(time.RFC3339), now.Add(defaultBarcodeTTL).Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write barcode cache: %w", err)
	}
	return nil
}

type PantryScanInput struct {
	Barcode string
	// Packages multiplies the product quantity; zero means one.
	Packages float64
	// Ingredient and Category override the product's name and suggested
	// category when creating a new ingredient.
	Ingredient string
	Category   string
}

type PantryScanResult struct {
	Product    BarcodeProduct   `json:"product"`
	Ingredient model.Ingredient `json:"ingredient"`
	Created    bool             `json:"created"`
	Quantity   float64          `json:"quantity"`
}

// AddPantryFromBarcode looks a product up, resolves or creates its
// ingredient and adds the scanned amount to pantry stock.
func AddPantryFromBarcode(ctx context.Context, db *sql.DB, in PantryScanInput, opts BarcodeOptions) (PantryScanResult, error) {
	packages := in.Packages
	if packages == 0 {
		packages = 1
	}
	if err := validatePositiveFloat("packages", packages); err != nil {
		return PantryScanResult{}, err
	}
	product, err := LookupBarcode(ctx, db, in.Barcode, opts)
	if err != nil {
		return PantryScanResult{}, err
	}
	result := PantryScanResult{Product: product}

	name := strings.TrimSpace(in.Ingredient)
	if name == "" {
		name = product.Name
	}
	unit := NormalizeUnit(product.Unit)
	if unit == "" {
		unit = "each"
	}

	existingID, err := resolveIngredientByName(db, name)
	if err != nil {
		return result, err
	}
	if existingID == 0 {
		category := strings.TrimSpace(in.Category)
		if category == "" {
			category = product.Category
		}
		if _, err := categoryIDByName(db, category); err != nil {
			category = model.OtherCategory
		}
		if _, err := CreateIngredient(db, IngredientInput{Name: name, Category: category, DefaultUnit: unit}); err != nil {
			return result, err
		}
		result.Created = true
	}
	ing, err := ResolveIngredient(db, name)
	if err != nil {
		return result, err
	}
	result.Ingredient = *ing

	amount := product.Quantity * packages
	var current float64
	var currentUnit string
	err = db.QueryRow(`SELECT quantity, unit FROM pantry_items WHERE ingredient_id = ?`, ing.ID).Scan(&current, &currentUnit)
	switch {
	case err == sql.ErrNoRows:
		if err := SetPantryItem(db, ing.Name, amount, unit); err != nil {
			return result, err
		}
		result.Quantity = amount
	case err != nil:
		return result, fmt.Errorf("read pantry item %q: %w", ing.Name, err)
	case currentUnit != unit:
		return result, fmt.Errorf("pantry stores %q in %s but the product is measured in %s", ing.Name, currentUnit, unit)
	default:
		q, err := AdjustPantryItem(db, ing.Name, amount)
		if err != nil {
			return result, err
		}
		result.Quantity = q
	}
	return result, nil
}

type offAdapter struct {
	client *openfoodfacts.Client
}

func (a offAdapter) lookup(ctx context.Context, barcode string) (BarcodeProduct, []byte, error) {
	p, raw, err := a.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return BarcodeProduct{}, raw, err
	}
	return BarcodeProduct{
		Name:     p.Name,
		Brand:    p.Brand,
		Quantity: p.Quantity,
		Unit:     NormalizeUnit(p.Unit),
		Category: SuggestCategory(p.Categories),
	}, raw, nil
}

type upcAdapter struct {
	client *upcitemdb.Client
}

func (a upcAdapter) lookup(ctx context.Context, barcode string) (BarcodeProduct, []byte, error) {
	p, raw, err := a.client.LookupBarcode(ctx, barcode)
	if err != nil {
		return BarcodeProduct{}, raw, err
	}
	return BarcodeProduct{
		Name:     p.Name,
		Brand:    p.Brand,
		Quantity: p.Quantity,
		Unit:     NormalizeUnit(p.Unit),
		Category: SuggestCategory(strings.Split(p.Category, ">")),
	}, raw, nil
}

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"frozen", []string{"frozen"}},
	{"bakery", []string{"bread", "bakery", "pastr", "bagel", "tortilla"}},
	{"dairy", []string{"dair", "milk", "chees", "yogurt", "butter", "egg"}},
	{"meat", []string{"meat", "poultry", "chicken", "beef", "pork", "fish", "seafood"}},
	{"produce", []string{"fruit", "vegetable", "produce", "fresh"}},
	{"grains", []string{"pasta", "rice", "cereal", "grain", "flour", "oat", "noodle"}},
	{"pantry", []string{"canned", "sauce", "condiment", "spice", "legume", "bean", "oil", "snack", "soup"}},
}

// SuggestCategory maps provider taxonomy labels onto the default ingredient
// categories. Labels are checked from the most specific (last) backwards.
func SuggestCategory(labels []string) string {
	for i := len(labels) - 1; i >= 0; i-- {
		label := strings.ToLower(strings.TrimSpace(labels[i]))
		if label == "" {
			continue
		}
		for _, kw := range categoryKeywords {
			for _, w := range kw.words {
				if strings.Contains(label, w) {
					return kw.category
				}
			}
		}
	}
	return model.OtherCategory
}
