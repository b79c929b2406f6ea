package catalog

import (
	"github.com/shopspring/decimal"
)

// AllCategories is the category sentinel meaning "no category filter".
const AllCategories = "all"

// DefaultPageSize is the number of products requested per listing page.
const DefaultPageSize = 12

var hundred = decimal.NewFromInt(100)

type Product struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage,omitempty"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Brand              string          `json:"brand,omitempty"`
	Category           string          `json:"category"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images,omitempty"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// DiscountedPrice applies DiscountPercentage (clamped to 0..100) and rounds to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	pct := p.DiscountPercentage
	if pct <= 0 {
		return p.Price
	}
	if pct > 100 {
		pct = 100
	}
	factor := hundred.Sub(decimal.NewFromFloat(pct)).Div(hundred)
	return p.Price.Mul(factor).Round(2)
}

// Gallery returns the images to show on a detail view, falling back to the thumbnail.
func (p Product) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Thumbnail == "" {
		return nil
	}
	return []string{p.Thumbnail}
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ListQuery struct {
	Search   string
	Category string
	Sort     Sort
	Page     int
	PageSize int
}

type ListResult struct {
	Products []Product
	Total    int
	HasMore  bool
}

// StockReport is the outcome of a live stock check. Ids in Failed could not be
// checked and are neither in stock nor out of stock as far as the caller knows.
type StockReport struct {
	OutOfStock []int
	Failed     map[int]error
}

type productPage struct {
	Products []Product `json:"products"`
	Total    *int      `json:"total"`
}
