package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/model"
)

func (s *gormStore) GetGuest(ctx context.Context, id int64) (*model.Guest, error) {
	var g model.Guest
	if err := s.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeGuestNotFound, "guest", id)
	}
	return &g, nil
}

// UpsertGuestByEmail returns the guest registered under guest.Email, creating
// it when missing. Emails are compared case-insensitively.
func (s *gormStore) UpsertGuestByEmail(ctx context.Context, guest *model.Guest) (*model.Guest, error) {
	email := strings.ToLower(strings.TrimSpace(guest.Email))
	if email == "" {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "guest email is required")
	}

	find := func() (*model.Guest, error) {
		var existing model.Guest
		err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
		if err != nil {
			return nil, err
		}
		return &existing, nil
	}

	existing, err := find()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find guest by email: %w", err)
	}

	created := *guest
	created.ID = 0
	created.Email = email
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with another public booking for the same guest.
			if existing, ferr := find(); ferr == nil {
				return existing, nil
			}
			return nil, apperr.Conflict(apperr.CodeDuplicateEmail, "guest %s already exists", email).Wrap(err).AsRetryable()
		}
		return nil, fmt.Errorf("create guest: %w", err)
	}
	return &created, nil
}

// GetUser loads a user with its employee identity, if any.
func (s *gormStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Preload("Employee").First(&u, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeUserNotFound, "user", id)
	}
	return &u, nil
}

func (s *gormStore) ListUserIDsByRole(ctx context.Context, roles ...model.UserRole) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("role IN ?", roles).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return ids, nil
}

func (s *gormStore) GetEmployeeByUserID(ctx context.Context, userID int64) (*model.Employee, error) {
	var e model.Employee
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Precondition(apperr.CodeNoEmployeeIdentity, "user %d has no employee identity", userID)
		}
		return nil, fmt.Errorf("get employee for user %d: %w", userID, err)
	}
	return &e, nil
}

func (s *gormStore) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	var e model.Employee
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err, apperr.CodeUserNotFound, "employee", id)
	}
	return &e, nil
}
