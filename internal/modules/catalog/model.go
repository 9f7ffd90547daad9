package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an item offered for sale in the storefront.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateProductRequest is the payload for adding a product to the catalog.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty"`
	Stock       int             `json:"stock"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// UpdateProductRequest is the payload for editing a product.
type UpdateProductRequest struct {
	Name        string           `json:"name,omitempty"`
	Description string           `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Attributes  json.RawMessage  `json:"attributes,omitempty"`
}
