package database

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aigenthix/cms-backend/models"
)

// Migrate creates the blogs and users tables plus their indexes. Idempotent;
// runs at every startup.
func Migrate(ctx context.Context, pool *Pool) error {
	db, err := pool.Get(ctx)
	if err != nil {
		return err
	}
	return db.AutoMigrate(&models.Blog{}, &models.User{})
}

// EnsureAdmin creates a default admin account when none exists. Called only
// when ADMIN_EMAIL and ADMIN_PASSWORD are configured.
func EnsureAdmin(ctx context.Context, userRepo *UserRepo, email, passwordHash string, logger zerolog.Logger) error {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         "Admin",
		Role:         "admin",
		IsActive:     true,
	}
	if _, err := userRepo.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info().Str("email", email).Msg("Default admin account created")
	return nil
}
