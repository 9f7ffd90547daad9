package cart

import "time"

// Item is a single product entry in a shopper's cart.
type Item struct {
	ProductID  string            `json:"product_id"`
	VariantID  string            `json:"variant_id,omitempty"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Cart is the full cart for one user. Carts live in Redis, keyed by user id,
// and expire after a period of inactivity.
type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID  string            `json:"product_id"`
	VariantID  string            `json:"variant_id,omitempty"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// UpdateItemRequest sets an item's quantity; zero removes the item.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}
