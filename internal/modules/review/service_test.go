package review

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	reviews map[string]*Review
}

func newFakeRepo() *fakeRepo { return &fakeRepo{reviews: map[string]*Review{}} }

func (r *fakeRepo) Create(_ context.Context, rev *Review) error {
	for _, existing := range r.reviews {
		if existing.ProductID == rev.ProductID && existing.UserID == rev.UserID {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	r.reviews[rev.ID.String()] = rev
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Review, error) {
	rev, ok := r.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rev, nil
}

func (r *fakeRepo) ListByProduct(_ context.Context, productID string) ([]*Review, error) {
	out := []*Review{}
	for _, rev := range r.reviews {
		if rev.ProductID.String() == productID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeRepo) Summarize(_ context.Context, productID string) (*Summary, error) {
	s := &Summary{ProductID: uuid.MustParse(productID)}
	sum := 0
	for _, rev := range r.reviews {
		if rev.ProductID.String() == productID {
			s.ReviewCount++
			sum += rev.Rating
		}
	}
	if s.ReviewCount > 0 {
		s.AverageRating = float64(sum) / float64(s.ReviewCount)
	}
	return s, nil
}

func (r *fakeRepo) Delete(_ context.Context, id, userID string) (bool, error) {
	rev, ok := r.reviews[id]
	if !ok || rev.UserID.String() != userID {
		return false, nil
	}
	delete(r.reviews, id)
	return true, nil
}

type fakeProducts struct{ exists bool }

func (f *fakeProducts) Exists(context.Context, string) (bool, error) { return f.exists, nil }

func TestCreateReviewValidatesRating(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeProducts{exists: true})
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, uuid.NewString(), uuid.NewString(), CreateReviewRequest{Rating: rating})
		assert.ErrorContains(t, err, "between 1 and 5", "rating %d", rating)
	}
}

func TestCreateReviewRejectsUnknownProduct(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeProducts{exists: false})

	_, err := svc.Create(context.Background(), uuid.NewString(), uuid.NewString(), CreateReviewRequest{Rating: 4})
	assert.ErrorContains(t, err, "product not found")
}

func TestCreateReviewOnePerUserPerProduct(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeProducts{exists: true})
	ctx := context.Background()
	userID := uuid.NewString()
	productID := uuid.NewString()

	_, err := svc.Create(ctx, userID, productID, CreateReviewRequest{Rating: 5, Title: "Great"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, userID, productID, CreateReviewRequest{Rating: 1})
	assert.ErrorContains(t, err, "already reviewed")
}

func TestSummarizeAveragesRatings(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeProducts{exists: true})
	ctx := context.Background()
	productID := uuid.NewString()

	for _, rating := range []int{5, 4, 3} {
		_, err := svc.Create(ctx, uuid.NewString(), productID, CreateReviewRequest{Rating: rating})
		require.NoError(t, err)
	}

	s, err := svc.Summarize(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.ReviewCount)
	assert.InDelta(t, 4.0, s.AverageRating, 0.001)
}

func TestDeleteOnlyOwnReview(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeProducts{exists: true})
	ctx := context.Background()

	rev, err := svc.Create(ctx, uuid.NewString(), uuid.NewString(), CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	err = svc.Delete(ctx, rev.ID.String(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, rev.ID.String(), rev.UserID.String()))
}
