package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// PurgeAuditLog deletes audit records older than retention.
func PurgeAuditLog(ctx context.Context, repo AuditRepository, retention time.Duration, logger *logrus.Entry) (int64, error) {
	deleted, err := repo.DeleteBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		logger.WithError(err).Error("Failed to purge audit log")
		return 0, err
	}
	if deleted > 0 {
		logger.WithField("deleted", deleted).Info("Purged old audit records")
	}
	return deleted, nil
}

// RunAuditCleanup purges the audit log every interval until ctx is done.
func RunAuditCleanup(ctx context.Context, repo AuditRepository, retention, interval time.Duration, logger *logrus.Entry) {
	if retention <= 0 || interval <= 0 {
		logger.Info("Audit log retention disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logger.Debug("Running audit log cleanup...")
			PurgeAuditLog(ctx, repo, retention, logger)
		case <-ctx.Done():
			return
		}
	}
}
