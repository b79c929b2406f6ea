package catalog

import "errors"

var (
	ErrNetwork     = errors.New("catalog request failed")
	ErrNotFound    = errors.New("product not found")
	ErrInvalidSort = errors.New("invalid sort")
)
