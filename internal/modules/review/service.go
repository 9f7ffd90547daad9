package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("review not found")

// ProductChecker verifies the reviewed product exists and is visible.
type ProductChecker interface {
	Exists(ctx context.Context, productID string) (bool, error)
}

// Service manages product reviews.
type Service interface {
	Create(ctx context.Context, userID, productID string, req CreateReviewRequest) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)
	Summarize(ctx context.Context, productID string) (*Summary, error)
	Delete(ctx context.Context, id, userID string) error
}

type service struct {
	repo     Repository
	products ProductChecker
}

func NewService(repo Repository, products ProductChecker) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Create(ctx context.Context, userID, productID string, req CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	ok, err := s.products.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("product not found")
	}

	rev := &Review{
		ID:        uuid.New(),
		ProductID: pid,
		UserID:    uid,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
	}
	if err := s.repo.Create(ctx, rev); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, fmt.Errorf("you have already reviewed this product")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return s.repo.GetByID(ctx, rev.ID.String())
}

func (s *service) ListByProduct(ctx context.Context, productID string) ([]*Review, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *service) Summarize(ctx context.Context, productID string) (*Summary, error) {
	return s.repo.Summarize(ctx, productID)
}

func (s *service) Delete(ctx context.Context, id, userID string) error {
	removed, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}
