package sql

import (
	"context"
	"dockpanel/internal/entity"
	"errors"
	"fmt"
	"strings"
)

// CreateUser persists a new identity. The email is checked up front and the
// unique index remains the authority when two writers race.
func (r *GormRepository) CreateUser(ctx context.Context, user *entity.DbIdentity) error {
	if r == nil || r.db == nil {
		return errNotInitialised
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	user.Email = entity.NormalizeEmail(user.Email)
	if user.Email == "" {
		return fmt.Errorf("email is empty")
	}

	if _, err := r.GetUserByEmail(ctx, user.Email); err == nil {
		return entity.ErrDuplicateEmail
	} else if !errors.Is(err, entity.ErrUserNotFound) {
		return err
	}

	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// UpdateUser applies updates and returns the reloaded record.
func (r *GormRepository) UpdateUser(ctx context.Context, id string, updates entity.IdentityUpdates) (*entity.DbIdentity, error) {
	if r == nil || r.db == nil {
		return nil, errNotInitialised
	}
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrUserNotFound
	}
	if !updates.IsEmpty() {
		err := r.db.WithContext(ctx).Model(&entity.DbIdentity{}).Where("id = ?", id).Updates(updates.ToMap()).Error
		if err != nil {
			return nil, translateError(err)
		}
	}
	return r.GetUserByID(ctx, id)
}

// GetUserByEmail loads a user by email.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*entity.DbIdentity, error) {
	if r == nil || r.db == nil {
		return nil, errNotInitialised
	}
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return nil, entity.ErrUserNotFound
	}

	var user entity.DbIdentity
	if err := r.db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUserByID loads a user by ID.
func (r *GormRepository) GetUserByID(ctx context.Context, id string) (*entity.DbIdentity, error) {
	if r == nil || r.db == nil {
		return nil, errNotInitialised
	}
	if strings.TrimSpace(id) == "" {
		return nil, entity.ErrUserNotFound
	}
	var user entity.DbIdentity
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// ListUsers returns paginated users.
func (r *GormRepository) ListUsers(ctx context.Context, params *entity.IdentityQuery) ([]entity.DbIdentity, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, errNotInitialised
	}

	query := r.db.WithContext(ctx).Model(&entity.DbIdentity{})
	var base *entity.BaseParams
	if params != nil {
		base = &params.BaseParams
		if trimmed := strings.TrimSpace(params.Role); trimmed != "" {
			query = query.Where("role = ?", trimmed)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", kw, kw)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize, offset := pageBounds(base)

	var users []entity.DbIdentity
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, nil, err
	}

	return users, r.calculatePagination(total, page, pageSize), nil
}

// AllUsers returns every identity, oldest first.
func (r *GormRepository) AllUsers(ctx context.Context) ([]entity.DbIdentity, error) {
	if r == nil || r.db == nil {
		return nil, errNotInitialised
	}
	var users []entity.DbIdentity
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a user by ID.
func (r *GormRepository) DeleteUser(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errNotInitialised
	}
	if strings.TrimSpace(id) == "" {
		return entity.ErrUserNotFound
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.DbIdentity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return entity.ErrUserNotFound
	}
	return nil
}

// CountUsers returns total user count.
func (r *GormRepository) CountUsers(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errNotInitialised
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbIdentity{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
