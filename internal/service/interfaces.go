package service

import (
	"context"
	"time"

	"zabbix-chatops/internal/models"
)

// Sender delivers outbound messages through the messaging transport.
type Sender interface {
	Send(ctx context.Context, recipient string, msg models.OutboundMessage) error
}

// Renderer produces a chart image at req.OutputPath or fails.
type Renderer interface {
	Render(ctx context.Context, req models.RenderRequest) error
}

// AuditRepository stores the delivery audit log.
type AuditRepository interface {
	Append(ctx context.Context, record *models.AuditRecord) error
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.AuditRecord, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
