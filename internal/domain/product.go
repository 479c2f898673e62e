package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProductNotFound = errors.New("product not found")
)

// LowStockThreshold is the stock level below which the dashboard flags a product.
const LowStockThreshold = 10

const DefaultUnit = "kg"

// Categories and Units are the values the admin form offers. Writes must use
// one of them; reads do not check.
var (
	Categories = []string{"Peixes", "Frutos do Mar", "Combos", "Bebidas", "Temperos", "Outros"}
	Units      = []string{"kg", "un", "kit", "pacote", "litro"}
)

// Product is a catalog record. Stock is optional: nil means the stock level is
// unknown, which is not the same as zero.
type Product struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Category      string    `bson:"category" json:"category"`
	Price         Money     `bson:"price" json:"price"`
	OriginalPrice *Money    `bson:"original_price,omitempty" json:"originalPrice,omitempty"`
	Unit          string    `bson:"unit" json:"unit"`
	Description   string    `bson:"description" json:"description"`
	Stock         *int      `bson:"stock,omitempty" json:"stock,omitempty"`
	Image         string    `bson:"image,omitempty" json:"image,omitempty"`
	IsBestSeller  bool      `bson:"is_best_seller" json:"isBestSeller"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

func (p Product) StockKnown() bool {
	return p.Stock != nil
}

// InStock reports a positive known stock level.
func (p Product) InStock() bool {
	return p.Stock != nil && *p.Stock > 0
}

func (p Product) LowStock() bool {
	return p.Stock != nil && *p.Stock < LowStockThreshold
}

// ProductInput is the editable part of a product, as sent by the admin form.
type ProductInput struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Price         Money  `json:"price"`
	OriginalPrice *Money `json:"originalPrice,omitempty"`
	Unit          string `json:"unit"`
	Description   string `json:"description"`
	Stock         *int   `json:"stock,omitempty"`
	Image         string `json:"image,omitempty"`
	IsBestSeller  bool   `json:"isBestSeller"`
}

const placeholderImage = "/images/placeholder.jpg"

// Normalize trims text fields and fills defaults.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	if in.Unit == "" {
		in.Unit = DefaultUnit
	}
	if in.Image == "" {
		in.Image = placeholderImage
	}
}

func (in ProductInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	case !slices.Contains(Categories, strings.TrimSpace(in.Category)):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case in.OriginalPrice != nil && in.OriginalPrice.IsNegative():
		return fmt.Errorf("%w: originalPrice must not be negative", ErrInvalidInput)
	case in.Stock != nil && *in.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	case in.Unit != "" && !slices.Contains(Units, in.Unit):
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidInput, in.Unit)
	}
	return nil
}

// ProductUpdate pairs a product id with its new content for batch updates.
type ProductUpdate struct {
	ID    string       `json:"id"`
	Input ProductInput `json:"data"`
}

type StockUpdate struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}

type DashboardStats struct {
	TotalProducts int `json:"totalProducts"`
	Categories    int `json:"categories"`
	InStock       int `json:"inStock"`
	LowStock      int `json:"lowStock"`
}

type CategoryStats struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	TotalStock int    `json:"totalStock"`
}

// ComputeDashboardStats aggregates the admin dashboard counters.
func ComputeDashboardStats(products []Product) DashboardStats {
	stats := DashboardStats{TotalProducts: len(products)}
	categories := make(map[string]struct{})
	for _, p := range products {
		categories[p.Category] = struct{}{}
		if p.InStock() {
			stats.InStock++
		}
		if p.LowStock() {
			stats.LowStock++
		}
	}
	stats.Categories = len(categories)
	return stats
}

// ComputeCategoryStats groups products by category, sorted by name.
// Unknown stock contributes nothing to TotalStock.
func ComputeCategoryStats(products []Product) []CategoryStats {
	byName := make(map[string]*CategoryStats)
	for _, p := range products {
		cs, ok := byName[p.Category]
		if !ok {
			cs = &CategoryStats{Name: p.Category}
			byName[p.Category] = cs
		}
		cs.Count++
		if p.Stock != nil {
			cs.TotalStock += *p.Stock
		}
	}

	out := make([]CategoryStats, 0, len(byName))
	for _, cs := range byName {
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b CategoryStats) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
