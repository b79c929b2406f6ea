package listing

import (
	"shopapp/internal/catalog"
)

type State struct {
	Products         []catalog.Product  `json:"products"`
	Total            int                `json:"total"`
	Page             int                `json:"page"`
	HasMore          bool               `json:"has_more"`
	Search           string             `json:"search"`
	SelectedCategory string             `json:"selected_category"`
	Sort             catalog.Sort       `json:"sort"`
	Loading          bool               `json:"loading"`
	Error            string             `json:"error,omitempty"`
	Categories       []catalog.Category `json:"categories"`
}

func initialState() State {
	return State{
		Products:         []catalog.Product{},
		HasMore:          true,
		SelectedCategory: catalog.AllCategories,
		Sort:             catalog.SortDefault,
		Categories:       []catalog.Category{},
	}
}

// ActiveFilterCount counts the non-default category and sort selections.
func (s State) ActiveFilterCount() int {
	n := 0
	if s.SelectedCategory != catalog.AllCategories {
		n++
	}
	if s.Sort != catalog.SortDefault {
		n++
	}
	return n
}

// Featured returns up to n leading products for the banner carousel.
func (s State) Featured(n int) []catalog.Product {
	if n < 0 {
		n = 0
	}
	if n > len(s.Products) {
		n = len(s.Products)
	}
	return s.Products[:n]
}

// Product finds a listed product by id.
func (s State) Product(id int) (catalog.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Product{}, false
}

func (s State) query(pageSize int) catalog.ListQuery {
	return catalog.ListQuery{
		Search:   s.Search,
		Category: s.SelectedCategory,
		Sort:     s.Sort,
		Page:     s.Page,
		PageSize: pageSize,
	}
}

func (s State) clone() State {
	s.Products = cloneProducts(s.Products)
	s.Categories = append([]catalog.Category{}, s.Categories...)
	return s
}

// mergePage appends the products whose id is not already listed, keeping
// server order.
func mergePage(existing, page []catalog.Product) []catalog.Product {
	seen := make(map[int]struct{}, len(existing)+len(page))
	for _, p := range existing {
		seen[p.ID] = struct{}{}
	}
	out := existing
	for _, p := range page {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func cloneProducts(ps []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
