package checkout

import (
	"shopapp/internal/cart"
	"shopapp/internal/stock"
)

const (
	DefaultAddressID = "home"
	DefaultPaymentID = "credit"
)

type Address struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

type PaymentMethod struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var addresses = []Address{
	{ID: "home", Label: "Home", Detail: "675) 878-785\nSadia Villa, Habiganj"},
	{ID: "office", Label: "Office", Detail: "277) 555-0113\n639 Elgin st, Habiganj"},
}

var paymentMethods = []PaymentMethod{
	{ID: "credit", Label: "Credit card"},
	{ID: "paypal", Label: "Paypal"},
	{ID: "google", Label: "Google pay"},
	{ID: "apple", Label: "Apple"},
}

type Selection struct {
	AddressID string `json:"address_id"`
	PaymentID string `json:"payment_id"`
}

type Options struct {
	Addresses []Address       `json:"addresses"`
	Payments  []PaymentMethod `json:"payments"`
	Selected  Selection       `json:"selected"`
}

// Summary is what the checkout screen shows after the cart was re-checked.
type Summary struct {
	Lines   []cart.Line   `json:"lines"`
	Totals  cart.Totals   `json:"totals"`
	Address Address       `json:"address"`
	Payment PaymentMethod `json:"payment"`
	Stock   *stock.Result `json:"stock,omitempty"`
}

func findAddress(id string) (Address, bool) {
	for _, a := range addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}

func findPayment(id string) (PaymentMethod, bool) {
	for _, p := range paymentMethods {
		if p.ID == id {
			return p, true
		}
	}
	return PaymentMethod{}, false
}
