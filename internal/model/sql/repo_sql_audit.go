package sql

import (
	"context"
	"dockpanel/internal/entity"
	"fmt"
	"strings"
)

// CreateAuditEvent inserts a new audit event.
func (r *GormRepository) CreateAuditEvent(ctx context.Context, event *entity.DbAuditEvent) error {
	if r == nil || r.db == nil {
		return errNotInitialised
	}
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListAuditEvents retrieves paginated audit events, newest first.
func (r *GormRepository) ListAuditEvents(ctx context.Context, params *entity.AuditQuery) ([]entity.DbAuditEvent, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, errNotInitialised
	}

	query := r.db.WithContext(ctx).Model(&entity.DbAuditEvent{})
	var base *entity.BaseParams
	if params != nil {
		base = &params.BaseParams
		if trimmed := strings.TrimSpace(params.Action); trimmed != "" {
			query = query.Where("action = ?", trimmed)
		}
		if trimmed := strings.TrimSpace(params.TargetID); trimmed != "" {
			query = query.Where("target_id = ?", trimmed)
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize, offset := pageBounds(base)

	var events []entity.DbAuditEvent
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	return events, r.calculatePagination(totalCount, page, pageSize), nil
}
