package checkout

import "errors"

var (
	ErrUnknownAddress = errors.New("unknown shipping address")
	ErrUnknownPayment = errors.New("unknown payment method")
	ErrCartEmpty      = errors.New("cart is empty")
)
