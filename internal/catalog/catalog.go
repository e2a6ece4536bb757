// Package catalog exposes the static, read-only list of purchasable services.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/StrongArr0w/Arr0w-services-bot/internal/i18n"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Product describes a single purchasable service offering.
// Products are defined at process start and never mutated.
type Product struct {
	ID       string `yaml:"id"`
	Price    int    `yaml:"price"`
	Currency string `yaml:"currency"`
	NameRU   string `yaml:"name_ru"`
	DescRU   string `yaml:"desc_ru"`
	NameEN   string `yaml:"name_en"`
	DescEN   string `yaml:"desc_en"`
}

// Name returns the localized product name.
func (p Product) Name(lang i18n.Lang) string {
	if lang == i18n.LangEN {
		return p.NameEN
	}
	return p.NameRU
}

// Description returns the localized product description.
func (p Product) Description(lang i18n.Lang) string {
	if lang == i18n.LangEN {
		return p.DescEN
	}
	return p.DescRU
}

// Catalog is an in-memory product list with lookup by id.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

// New builds a catalog from an explicit product list.
func New(products []Product) *Catalog {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{products: products, byID: byID}
}

// Load parses the embedded catalog definition.
func Load() (*Catalog, error) {
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return New(doc.Products), nil
}

// Products returns all products in definition order.
func (c *Catalog) Products() []Product {
	return c.products
}

// FindByID looks up a product by its identifier.
func (c *Catalog) FindByID(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}
