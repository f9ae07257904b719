package model

import (
	"context"
	"dockpanel/internal/entity"
)

// Repository 定义数据库操作接口
//
// Implementations return entity.ErrUserNotFound and entity.ErrDuplicateEmail
// rather than engine-specific errors.
type Repository interface {
	// 身份管理
	CreateUser(ctx context.Context, user *entity.DbIdentity) error
	UpdateUser(ctx context.Context, id string, updates entity.IdentityUpdates) (*entity.DbIdentity, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbIdentity, error)
	GetUserByID(ctx context.Context, id string) (*entity.DbIdentity, error)
	ListUsers(ctx context.Context, params *entity.IdentityQuery) ([]entity.DbIdentity, *entity.Meta, error)
	AllUsers(ctx context.Context) ([]entity.DbIdentity, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)

	// 审计记录
	CreateAuditEvent(ctx context.Context, event *entity.DbAuditEvent) error
	ListAuditEvents(ctx context.Context, params *entity.AuditQuery) ([]entity.DbAuditEvent, *entity.Meta, error)

	Close() error
}
