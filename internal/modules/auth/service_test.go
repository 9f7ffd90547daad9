package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bupechanda/shopline-backend/internal/modules/user"
)

type fakeUserRepo struct {
	users map[string]*user.User
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *user.User) error {
	r.users[u.Email] = u
	return nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	return u, nil
}

func (r *fakeUserRepo) GetUserByID(context.Context, string) (*user.User, error) {
	return nil, fmt.Errorf("no rows")
}

func (r *fakeUserRepo) UpdateProfile(context.Context, string, string, string, string) error {
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	repo.users[email] = u
	return u
}

func TestLoginIssuesTokenAcceptedByMiddleware(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	u := seedUser(t, repo, "a@b.com", "s3cretpass")
	svc := NewService(repo, "test-secret")

	token, err := svc.Login(context.Background(), "a@b.com", "s3cretpass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var gotUserID string
	handler := RequireAuth("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID.String(), gotUserID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*user.User{}}
	seedUser(t, repo, "a@b.com", "s3cretpass")
	svc := NewService(repo, "test-secret")

	_, err := svc.Login(context.Background(), "a@b.com", "wrong")
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := NewService(&fakeUserRepo{users: map[string]*user.User{}}, "test-secret")

	_, err := svc.Login(context.Background(), "ghost@b.com", "whatever")
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	handler := RequireAuth("test-secret")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.jwt",
		"wrong secret": "Bearer eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.invalid",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}
