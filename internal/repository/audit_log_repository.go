package repository

import (
	"context"

	"github.com/TGOSS1984/ashen-emporium/internal/domain/model"
)

type AuditLogFilter struct {
	Page       int
	Limit      int
	Action     string
	ResourceID *int64
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
