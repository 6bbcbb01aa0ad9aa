package repository

import (
	"context"

	"carpool/internal/domain"
)

// ProfileRepository defines the persistence operations for profiles.
type ProfileRepository interface {
	// Create persists a new profile.
	Create(ctx context.Context, profile *domain.Profile) error

	// GetByID retrieves a profile by ID.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)

	// Update updates an existing profile.
	Update(ctx context.Context, profile *domain.Profile) error
}
