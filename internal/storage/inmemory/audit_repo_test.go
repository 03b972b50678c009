package inmemory_test

import (
	"context"
	"testing"
	"time"

	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository(t *testing.T) {
	repo := inmemory.NewAuditRepository()
	ctx := context.Background()
	now := time.Now()

	old := &models.AuditRecord{Recipient: "100", Action: "raised", Timestamp: now.Add(-time.Hour)}
	require.NoError(t, repo.Append(ctx, old))
	require.NoError(t, repo.Append(ctx, &models.AuditRecord{Recipient: "200", Action: "#status", Timestamp: now}))
	require.NoError(t, repo.Append(ctx, &models.AuditRecord{Recipient: "100", Action: "#resolve", Timestamp: now}))
	assert.Equal(t, uint(1), old.ID)

	records, err := repo.ListByRecipient(ctx, "100", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "#resolve", records[0].Action)

	limited, err := repo.ListByRecipient(ctx, "100", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	deleted, err := repo.DeleteBefore(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, _ = repo.ListByRecipient(ctx, "100", 0)
	require.Len(t, records, 1)
	assert.Equal(t, "#resolve", records[0].Action)
}
