package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// DbIdentity represents a persisted account.
//
// Permissions is a snapshot taken when the account is created (or when an
// administrator rewrites it). It is not re-derived from Role on each check, so
// changing Role alone leaves existing rights untouched.
type DbIdentity struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Email        string      `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Name         string      `gorm:"column:name;type:varchar(255)" json:"name"`
	Role         string      `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	Permissions  StringArray `gorm:"column:permissions;type:text" json:"permissions"`
	IsSuperAdmin bool        `gorm:"column:is_super_admin;not null;default:false" json:"is_super_admin"`
}

// TableName overrides default naming.
func (DbIdentity) TableName() string {
	return "identities"
}

// BeforeCreate assigns the opaque id and normalises the email.
func (i *DbIdentity) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(i.ID) == "" {
		i.ID = uuid.NewString()
	}
	i.Email = NormalizeEmail(i.Email)
	return nil
}

// Summary returns the public projection of the record.
func (i *DbIdentity) Summary() IdentitySummary {
	if i == nil {
		return IdentitySummary{}
	}
	return IdentitySummary{
		ID:           i.ID,
		Email:        i.Email,
		Name:         i.Name,
		Role:         i.Role,
		Permissions:  i.Permissions.ToSlice(),
		IsSuperAdmin: i.IsSuperAdmin,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdentitySummary is the identity shape handed to handlers and returned to clients.
type IdentitySummary struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPermission 判断是否拥有指定权限
func (s *IdentitySummary) HasPermission(permission string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of required is held. An empty
// requirement is satisfied by any identity.
func (s *IdentitySummary) HasAnyPermission(required []string) bool {
	if len(required) == 0 {
		return s != nil
	}
	for _, p := range required {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every entry of required is held.
func (s *IdentitySummary) HasAllPermissions(required []string) bool {
	if s == nil {
		return false
	}
	for _, p := range required {
		if !s.HasPermission(p) {
			return false
		}
	}
	return true
}

// IdentityQuery supports listing identities with pagination.
type IdentityQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

// AuthStatusResponse indicates whether the system already has users.
type AuthStatusResponse struct {
	HasUser bool `json:"has_user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      IdentitySummary `json:"user"`
}

type IdentityCreateRequest struct {
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required,min=8"`
	Name        string   `json:"name"`
	Role        string   `json:"role" binding:"required"`
	Permissions []string `json:"permissions,omitempty"`
}

type IdentityUpdateRequest struct {
	Name        *string   `json:"name,omitempty"`
	Role        *string   `json:"role,omitempty"`
	Password    *string   `json:"password,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

type IdentityListResponse struct {
	Users []IdentitySummary `json:"users"`
	Meta  *Meta             `json:"meta"`
}

type PermissionCatalogResponse struct {
	Roles       map[string][]string `json:"roles"`
	Permissions []string            `json:"permissions"`
}
