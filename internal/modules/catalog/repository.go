package catalog

import "context"

// Repository defines data access for catalog products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// Exists reports whether an active product with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
