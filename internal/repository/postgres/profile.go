package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create adds a new profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `INSERT INTO profiles (id, full_name, bio, phone, avatar_url) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.FullName, profile.Bio, profile.Phone, profile.AvatarURL)
	return err
}

// GetByID retrieves a profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT id, full_name, bio, phone, avatar_url, created_at FROM profiles WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var profile domain.Profile
	err := row.Scan(&profile.ID, &profile.FullName, &profile.Bio, &profile.Phone, &profile.AvatarURL, &profile.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update updates an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `UPDATE profiles SET full_name = $1, bio = $2, phone = $3, avatar_url = $4 WHERE id = $5`

	affected, err := execAffected(ctx, r.db, query, profile.FullName, profile.Bio, profile.Phone, profile.AvatarURL, profile.ID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
