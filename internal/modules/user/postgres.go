package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, nilIfEmpty(user.Phone))
	return err
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE email = $1`, email))
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+` WHERE id = $1`, parsedID))
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET first_name=$1, last_name=$2, phone=COALESCE(NULLIF($3,''), phone), updated_at=$4
		WHERE id=$5`,
		firstName, lastName, phone, time.Now(), id)
	return err
}

const selectSQL = `
	SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
	FROM users`

func (r *postgresRepository) scan(row *sql.Row) (*User, error) {
	user := &User{}
	var phone sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		user.Phone = phone.String
	}
	return user, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
