package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, uid string) (Profile, error)
	Create(ctx context.Context, p Profile) error
}

// PGProfileRepository stores profiles in the user_profiles table.
type PGProfileRepository struct {
	pool *pgxpool.Pool
}

// NewPGProfileRepository constructs the repository.
func NewPGProfileRepository(pool *pgxpool.Pool) *PGProfileRepository {
	return &PGProfileRepository{pool: pool}
}

// Get loads the profile of uid.
func (r *PGProfileRepository) Get(ctx context.Context, uid string) (Profile, error) {
	const query = `SELECT uid, email, role, permissions, display_name, created_at FROM user_profiles WHERE uid = $1`
	var (
		p     Profile
		role  string
		perms []string
	)
	err := r.pool.QueryRow(ctx, query, uid).Scan(&p.UID, &p.Email, &role, &perms, &p.DisplayName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("access: get profile: %w", err)
	}
	p.Role = Role(role)
	p.Permissions = make([]ModuleID, 0, len(perms))
	for _, perm := range perms {
		p.Permissions = append(p.Permissions, ModuleID(perm))
	}
	return p, nil
}

// Create inserts p; a concurrent insert for the same uid returns ErrProfileExists.
func (r *PGProfileRepository) Create(ctx context.Context, p Profile) error {
	const query = `INSERT INTO user_profiles (uid, email, role, permissions, display_name, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	perms := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms = append(perms, string(perm))
	}
	_, err := r.pool.Exec(ctx, query, p.UID, p.Email, string(p.Role), perms, p.DisplayName, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrProfileExists
		}
		return fmt.Errorf("access: create profile: %w", err)
	}
	return nil
}
