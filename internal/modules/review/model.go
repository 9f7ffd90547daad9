package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a product. One review per user per
// product, enforced by a unique index.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"` // 1..5
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary aggregates a product's reviews.
type Summary struct {
	ProductID     uuid.UUID `json:"product_id"`
	ReviewCount   int       `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
}

// CreateReviewRequest is the payload to post a review.
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`
}
