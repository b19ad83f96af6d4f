package models

// Currency is the only currency checkout sessions are created in.
const Currency = "usd"

// CartItem is a single entry of the storefront cart as sent by the client.
// Fields are pointers so that absent and zero values can be told apart.
type CartItem struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int64   `json:"quantity"`
}

// LineItem is a cart item converted to the provider's minor-unit pricing.
type LineItem struct {
	Currency        string
	ProductName     string
	UnitAmountMinor int64 // cents
	Quantity        int64
}

type CheckoutSession struct {
	ID  string
	URL string
}

type CheckoutResponse struct {
	URL string `json:"url"`
}
