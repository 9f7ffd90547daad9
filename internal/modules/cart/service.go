package cart

import (
	"context"
	"fmt"
)

// Service defines cart business logic.
type Service interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	AddItem(ctx context.Context, userID string, req AddItemRequest) (*Cart, error)
	// UpdateItem and RemoveItem address a line by product and variant, the
	// same key AddItem merges on.
	UpdateItem(ctx context.Context, userID, productID, variantID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID, variantID string) (*Cart, error)
	Clear(ctx context.Context, userID string) error
}

type service struct {
	store Store
}

// NewService creates a new cart service.
func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	return s.store.Get(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Cart, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be greater than 0")
	}

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Same product + variant merges quantities instead of duplicating lines.
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == req.ProductID && c.Items[i].VariantID == req.VariantID {
			c.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{
			ProductID:  req.ProductID,
			VariantID:  req.VariantID,
			Quantity:   req.Quantity,
			Attributes: req.Attributes,
		})
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, productID, variantID string, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative")
	}

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID == productID && item.VariantID == variantID {
			found = true
			if quantity == 0 {
				continue
			}
			item.Quantity = quantity
		}
		items = append(items, item)
	}
	if !found {
		return nil, fmt.Errorf("product %s is not in the cart", productID)
	}
	c.Items = items

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID, variantID string) (*Cart, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID || item.VariantID != variantID {
			items = append(items, item)
		}
	}
	c.Items = items

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}
