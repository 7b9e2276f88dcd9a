package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// UserStore persists users. Lookups return (nil, nil) when no row matches,
// which is what the auth subsystem expects.
type UserStore struct {
	db *gorm.DB
}

// FindByEmail returns the user with the given email, exact match.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns the user with the given id. A string that is not a
// valid UUID resolves to no user rather than an error, since token
// subjects are caller-supplied.
func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	var user model.User
	err = s.db.WithContext(ctx).Where("id = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// Update persists changed fields of an existing user.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

// ListActive returns active users, paginated.
func (s *UserStore) ListActive(ctx context.Context, offset, limit int) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}
