package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type Sort string

const (
	SortDefault   Sort = "default"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortNameAsc   Sort = "name-asc"
	SortNameDesc  Sort = "name-desc"
)

func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return Sort(s), nil
	case "":
		return SortDefault, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// remote maps the sort onto the catalog's sortBy/order params. Default sorting
// sends neither.
func (s Sort) remote() (sortBy, order string, ok bool) {
	switch s {
	case SortPriceAsc:
		return "price", "asc", true
	case SortPriceDesc:
		return "price", "desc", true
	case SortNameAsc:
		return "title", "asc", true
	case SortNameDesc:
		return "title", "desc", true
	}
	return "", "", false
}

func (q ListQuery) pageSize() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

func (q ListQuery) skip() int {
	if q.Page < 0 {
		return 0
	}
	return q.Page * q.pageSize()
}

// endpoint resolves the path and query for a listing request. Search wins over
// category; the two are never combined in one remote query.
func (q ListQuery) endpoint() (string, url.Values) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.pageSize()))
	params.Set("skip", strconv.Itoa(q.skip()))

	path := "/products"
	search := strings.TrimSpace(q.Search)
	switch {
	case search != "":
		path = "/products/search"
		params.Set("q", search)
	case q.Category != "" && q.Category != AllCategories:
		path = "/products/category/" + url.PathEscape(q.Category)
	}

	if sortBy, order, ok := q.Sort.remote(); ok {
		params.Set("sortBy", sortBy)
		params.Set("order", order)
	}
	return path, params
}
