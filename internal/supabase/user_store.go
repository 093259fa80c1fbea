package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/plantcare/internal/db"
)

const usersTable = "users"

// UserStore stores users in the Supabase "users" table.
type UserStore struct {
	client *Client
}

// NewUserStore wires a UserStore to a shared client.
func NewUserStore(client *Client) *UserStore {
	return &UserStore{client: client}
}

// userRow is the wire shape of a users row; unlike db.User it carries the password hash.
type userRow struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	City      *string    `json:"city"`
	BirthDate *string    `json:"birth_date"`
	Avatar    *string    `json:"avatar"`
	Bio       *string    `json:"bio"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func toRow(u *db.User) userRow {
	row := userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		City:      u.City,
		BirthDate: u.BirthDate,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
	}
	if !u.CreatedAt.IsZero() {
		created := u.CreatedAt
		row.CreatedAt = &created
	}
	return row
}

func (r userRow) user() db.User {
	u := db.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Password:  r.Password,
		City:      r.City,
		BirthDate: r.BirthDate,
		Avatar:    r.Avatar,
		Bio:       r.Bio,
	}
	if r.CreatedAt != nil {
		u.CreatedAt = *r.CreatedAt
	}
	return u
}

// Create inserts the user; a taken email surfaces as db.ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, user *db.User) error {
	var rows []userRow
	if err := s.client.Insert(ctx, usersTable, toRow(user), &rows); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("create user: %w: no row returned", db.ErrStorage)
	}
	*user = rows[0].user()
	return nil
}

// FindByEmail looks a user up by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	return s.findOne(ctx, "find user by email", url.Values{"email": {eq(strings.TrimSpace(email))}})
}

// FindByID looks a user up by id.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	return s.findOne(ctx, "find user by id", url.Values{"id": {eq(id.String())}})
}

func (s *UserStore) findOne(ctx context.Context, op string, query url.Values) (*db.User, error) {
	query.Set("limit", "1")
	var rows []userRow
	if err := s.client.Select(ctx, usersTable, query, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", op, db.ErrNotFound)
	}
	u := rows[0].user()
	return &u, nil
}
