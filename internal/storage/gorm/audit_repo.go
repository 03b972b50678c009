package gorm

import (
	"context"
	"time"

	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/service"

	"gorm.io/gorm"
)

// GormAuditRepository implements AuditRepository on top of GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a GORM-backed audit repository.
func NewGormAuditRepository(db *gorm.DB) (service.AuditRepository, error) {
	return &GormAuditRepository{db: db}, nil
}

func (r *GormAuditRepository) Append(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListByRecipient returns the newest records first. A non-positive limit
// returns every record of the recipient.
func (r *GormAuditRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.AuditRecord, error) {
	var records []*models.AuditRecord
	q := r.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("timestamp desc").
		Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

// DeleteBefore hard-deletes records older than t.
func (r *GormAuditRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().Where("timestamp < ?", t).Delete(&models.AuditRecord{})
	return res.RowsAffected, res.Error
}
