package cart

import "errors"

var (
	// -- Rehydration --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrDuplicateLine   = errors.New("duplicate cart line")
	ErrInvalidProduct  = errors.New("invalid cart product")
)
