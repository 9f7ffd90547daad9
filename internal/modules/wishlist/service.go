package wishlist

import (
	"context"
	"fmt"
)

// ProductChecker verifies wishlisted products exist.
type ProductChecker interface {
	Exists(ctx context.Context, productID string) (bool, error)
}

// Service manages per-user wishlists.
type Service interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]string, error)
	Contains(ctx context.Context, userID, productID string) (bool, error)
}

type service struct {
	store    Store
	products ProductChecker
}

func NewService(store Store, products ProductChecker) Service {
	return &service{store: store, products: products}
}

func (s *service) Add(ctx context.Context, userID, productID string) error {
	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("product not found")
	}
	return s.store.Add(ctx, userID, productID)
}

func (s *service) Remove(ctx context.Context, userID, productID string) error {
	return s.store.Remove(ctx, userID, productID)
}

func (s *service) List(ctx context.Context, userID string) ([]string, error) {
	return s.store.List(ctx, userID)
}

func (s *service) Contains(ctx context.Context, userID, productID string) (bool, error) {
	return s.store.Contains(ctx, userID, productID)
}
