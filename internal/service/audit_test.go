package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/service"
	"zabbix-chatops/internal/storage/inmemory"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestPurgeAuditLog(t *testing.T) {
	repo := inmemory.NewAuditRepository()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, &models.AuditRecord{Recipient: "R", Action: "raised", Timestamp: time.Now().Add(-3 * time.Hour)}))
	require.NoError(t, repo.Append(ctx, &models.AuditRecord{Recipient: "R", Action: "#status", Timestamp: time.Now()}))

	deleted, err := service.PurgeAuditLog(ctx, repo, time.Hour, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, _ := repo.ListByRecipient(ctx, "R", 0)
	require.Len(t, records, 1)
	assert.Equal(t, "#status", records[0].Action)
}

func TestRunAuditCleanup(t *testing.T) {
	repo := inmemory.NewAuditRepository()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, repo.Append(ctx, &models.AuditRecord{Recipient: "R", Action: "raised", Timestamp: time.Now().Add(-3 * time.Hour)}))

	done := make(chan struct{})
	go func() {
		service.RunAuditCleanup(ctx, repo, time.Hour, 10*time.Millisecond, discardLogger())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		records, _ := repo.ListByRecipient(context.Background(), "R", 0)
		return len(records) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestRunAuditCleanup_Disabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		service.RunAuditCleanup(context.Background(), inmemory.NewAuditRepository(), 0, time.Second, discardLogger())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled cleanup should return immediately")
	}
}
