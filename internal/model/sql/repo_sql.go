package sql

import (
	"dockpanel/internal/entity"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var errNotInitialised = errors.New("repository not initialised")

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// DB exposes the underlying handle for pool tuning and shutdown.
func (r *GormRepository) DB() *gorm.DB {
	return r.db
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// calculatePagination calculates pagination metrics
func (r *GormRepository) calculatePagination(totalCount int64, page, pageSize int) *entity.Meta {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	return &entity.Meta{
		Total:    totalCount,
		Page:     int64(page),
		PageSize: int64(pageSize),
	}
}

// pageBounds returns page, pageSize and offset with defaults applied.
func pageBounds(params *entity.BaseParams) (int, int, int) {
	page, pageSize := 1, 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}
	return page, pageSize, (page - 1) * pageSize
}

// uniqueViolationMarkers covers drivers whose dialector does not translate
// constraint errors for the driver build in use.
var uniqueViolationMarkers = []string{
	"unique constraint failed",     // sqlite
	"duplicate entry",              // mysql
	"duplicate key value violates", // postgres
}

// translateError maps engine errors onto the store error set. This is the only
// place that knows how each engine reports a uniqueness violation.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return entity.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", entity.ErrDuplicateEmail, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
