package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aigenthix/cms-backend/errs"
	"github.com/aigenthix/cms-backend/models"
)

type UserRepo struct {
	pool *Pool
}

func NewUserRepo(pool *Pool) *UserRepo {
	return &UserRepo{pool}
}

// FindByEmail returns a user by email, or nil when no row matches.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "user", err)
	}
	return &user, nil
}

// FindByID returns a user by ID, or nil when no row matches.
func (r *UserRepo) FindByID(ctx context.Context, id int) (*models.User, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "user", err)
	}
	return &user, nil
}

// Create inserts a new user and returns the generated ID. A duplicate email
// surfaces as a conflict.
func (r *UserRepo) Create(ctx context.Context, user *models.User) (int, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, errs.NewAlreadyExists("user")
		}
		return 0, errs.NewDatabaseError("create", "user", err)
	}
	return user.ID, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, errs.NewDatabaseError("count", "users", err)
	}
	return count, nil
}

// UpdateLastLogin stamps the user's last successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id int) (bool, error) {
	db, err := r.pool.Get(ctx)
	if err != nil {
		return false, err
	}

	result := db.Model(&models.User{}).Where("id = ?", id).Update("last_login", time.Now())
	if result.Error != nil {
		return false, errs.NewDatabaseError("update", "user", result.Error)
	}
	return result.RowsAffected > 0, nil
}
