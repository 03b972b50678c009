package inmemory

import (
	"context"
	"sync"
	"time"

	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/service"
)

// AuditRepository is an in-memory AuditRepository, used when no database is
// configured and in tests.
type AuditRepository struct {
	mu      sync.RWMutex
	records []*models.AuditRecord
	nextID  uint
}

// NewAuditRepository creates an empty repository.
func NewAuditRepository() service.AuditRepository {
	return &AuditRepository{nextID: 1}
}

func (r *AuditRepository) Append(ctx context.Context, record *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.ID = r.nextID
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	r.nextID++
	return nil
}

// ListByRecipient returns the newest records first.
func (r *AuditRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*models.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.AuditRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if r.records[i].Recipient == recipient {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *AuditRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.Timestamp.Before(t) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}
