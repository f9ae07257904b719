package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditBootstrapCreate  = "bootstrap.create"
	AuditBootstrapPromote = "bootstrap.promote"
	AuditIdentityRegister = "identity.register"
	AuditIdentityCreate   = "identity.create"
	AuditIdentityUpdate   = "identity.update"
	AuditIdentityDelete   = "identity.delete"
)

// DbAuditEvent records an identity mutation. Ids and emails are copied rather
// than referenced so deleting an identity never orphans its history.
type DbAuditEvent struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	ActorID     string    `gorm:"column:actor_id;type:varchar(36);index" json:"actor_id"`
	ActorEmail  string    `gorm:"column:actor_email;type:varchar(255)" json:"actor_email"`
	Action      string    `gorm:"column:action;type:varchar(64);index;not null" json:"action"`
	TargetID    string    `gorm:"column:target_id;type:varchar(36);index" json:"target_id"`
	TargetEmail string    `gorm:"column:target_email;type:varchar(255)" json:"target_email"`
	Detail      string    `gorm:"column:detail;type:text" json:"detail"`
}

// TableName 指定表名
func (DbAuditEvent) TableName() string {
	return "audit_events"
}

func (e *DbAuditEvent) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// AuditQuery filters the audit listing.
type AuditQuery struct {
	BaseParams
	Action   string `json:"action" form:"action" query:"action"`
	TargetID string `json:"target_id" form:"target_id" query:"target_id"`
}

type AuditListResponse struct {
	Events []DbAuditEvent `json:"events"`
	Meta   *Meta          `json:"meta"`
}
