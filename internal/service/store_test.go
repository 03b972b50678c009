package service_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"zabbix-chatops/internal/models"
	"zabbix-chatops/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cpuUsage  = &models.AlertDefinition{Name: "CPU Usage", Description: "High CPU usage detected", Severity: "High", Threshold: 90, Unit: "%", Host: "SRV-APP01", Item: "CPU | Usage"}
	diskSpace = &models.AlertDefinition{Name: "Disk Space", Description: "Low disk space available", Severity: "High", Threshold: 90, Unit: "%", Host: "SRV-STORAGE", Item: "FS | Space Used, in %"}
)

// steppingClock returns a clock advancing one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestAlertStore_RecordAlert(t *testing.T) {
	store := service.NewAlertStore()

	inst, err := store.RecordAlert("100", cpuUsage, "graphs/cpu.png", "")
	require.NoError(t, err)

	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, "100", inst.Recipient)
	assert.Same(t, cpuUsage, inst.Definition)
	assert.False(t, inst.RaisedAt.IsZero())
	assert.False(t, inst.Acknowledged)
	assert.Nil(t, inst.AcknowledgedAt)
	assert.False(t, inst.Resolved)
	assert.Nil(t, inst.ResolvedAt)
	assert.Equal(t, "graphs/cpu.png", inst.ArtifactRef)

	latest, ok := store.Latest("100")
	require.True(t, ok)
	assert.Equal(t, inst, latest)

	history := store.History("100", 5)
	require.NotEmpty(t, history)
	assert.Equal(t, inst.ID, history[len(history)-1].ID)
}

func TestAlertStore_RecordAlert_InvalidInput(t *testing.T) {
	store := service.NewAlertStore()

	_, err := store.RecordAlert("  ", cpuUsage, "", "")
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	_, err = store.RecordAlert("100", nil, "", "")
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	_, err = store.RecordAlert("100", &models.AlertDefinition{}, "", "")
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	_, ok := store.Latest("100")
	assert.False(t, ok)
}

func TestAlertStore_UnknownRecipient(t *testing.T) {
	store := service.NewAlertStore()

	_, ok := store.Latest("nobody")
	assert.False(t, ok)
	assert.Empty(t, store.History("nobody", 5))
	total, unresolved := store.Count("nobody")
	assert.Zero(t, total)
	assert.Zero(t, unresolved)

	_, err := store.Acknowledge("nobody")
	assert.True(t, errors.Is(err, service.ErrNoActiveAlert))
	_, err = store.Resolve("nobody", "")
	assert.True(t, errors.Is(err, service.ErrNoActiveAlert))

	// Failed mutations must not create state.
	_, ok = store.Latest("nobody")
	assert.False(t, ok)
}

func TestAlertStore_Acknowledge(t *testing.T) {
	store := service.NewAlertStore().WithClock(steppingClock())
	_, err := store.RecordAlert("100", cpuUsage, "", "")
	require.NoError(t, err)

	first, err := store.Acknowledge("100")
	require.NoError(t, err)
	assert.True(t, first.Acknowledged)
	require.NotNil(t, first.AcknowledgedAt)

	second, err := store.Acknowledge("100")
	require.NoError(t, err)
	require.NotNil(t, second.AcknowledgedAt)
	assert.True(t, second.AcknowledgedAt.After(*first.AcknowledgedAt))
	assert.Equal(t, first.ID, second.ID)

	total, _ := store.Count("100")
	assert.Equal(t, 1, total)
}

func TestAlertStore_OperatesOnLatest(t *testing.T) {
	store := service.NewAlertStore()
	older, _ := store.RecordAlert("100", cpuUsage, "", "")
	newer, _ := store.RecordAlert("100", diskSpace, "", "")

	acked, err := store.Acknowledge("100")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, acked.ID)

	history := store.History("100", 5)
	require.Len(t, history, 2)
	assert.Equal(t, older.ID, history[0].ID)
	assert.False(t, history[0].Acknowledged)
	assert.True(t, history[1].Acknowledged)
}

func TestAlertStore_Resolve(t *testing.T) {
	store := service.NewAlertStore()
	raised, _ := store.RecordAlert("100", cpuUsage, "graphs/cpu.png", "")

	resolved, err := store.Resolve("100", "graphs/cpu_resolved.png")
	require.NoError(t, err)
	assert.Equal(t, raised.ID, resolved.ID)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "graphs/cpu_resolved.png", resolved.ResolutionArtifactRef)

	again, err := store.Resolve("100", "")
	require.NoError(t, err)
	assert.True(t, again.Resolved)
	assert.NotNil(t, again.ResolvedAt)

	total, unresolved := store.Count("100")
	assert.Equal(t, 1, total)
	assert.Zero(t, unresolved)
}

func TestAlertStore_AttachResolutionArtifact(t *testing.T) {
	store := service.NewAlertStore()
	first, _ := store.RecordAlert("100", cpuUsage, "", "")
	_, _ = store.RecordAlert("100", diskSpace, "", "")

	require.NoError(t, store.AttachResolutionArtifact("100", first.ID, "graphs/cpu_resolved.png"))
	history := store.History("100", 5)
	assert.Equal(t, "graphs/cpu_resolved.png", history[0].ResolutionArtifactRef)
	assert.Empty(t, history[1].ResolutionArtifactRef)

	err := store.AttachResolutionArtifact("100", "missing", "x.png")
	assert.True(t, errors.Is(err, service.ErrNoActiveAlert))
}

func TestAlertStore_SnapshotsAreDetached(t *testing.T) {
	store := service.NewAlertStore()
	inst, _ := store.RecordAlert("100", cpuUsage, "", "")
	inst.Acknowledged = true

	latest, _ := store.Latest("100")
	assert.False(t, latest.Acknowledged)
}

func TestAlertStore_HistoryWindow(t *testing.T) {
	store := service.NewAlertStore().WithClock(steppingClock())
	var ids []string
	for i := 0; i < 12; i++ {
		def := &models.AlertDefinition{Name: fmt.Sprintf("Alert %d", i)}
		inst, err := store.RecordAlert("100", def, "", "")
		require.NoError(t, err)
		ids = append(ids, inst.ID)
	}

	history := store.History("100", 5)
	require.Len(t, history, 5)
	for i, inst := range history {
		assert.Equal(t, ids[7+i], inst.ID)
		if i > 0 {
			assert.True(t, inst.RaisedAt.After(history[i-1].RaisedAt))
		}
	}

	assert.Len(t, store.History("100", 50), 12)
	assert.Empty(t, store.History("100", 0))
}

func TestAlertStore_RecipientsAreIsolated(t *testing.T) {
	store := service.NewAlertStore()
	_, _ = store.RecordAlert("100", cpuUsage, "", "")

	_, err := store.Acknowledge("200")
	assert.True(t, errors.Is(err, service.ErrNoActiveAlert))

	latest, _ := store.Latest("100")
	assert.False(t, latest.Acknowledged)
}

func TestAlertStore_ConcurrentRaises(t *testing.T) {
	store := service.NewAlertStore()
	const perRecipient = 50

	var wg sync.WaitGroup
	for _, recipient := range []string{"100", "200", "300"} {
		for i := 0; i < perRecipient; i++ {
			wg.Add(1)
			go func(recipient string) {
				defer wg.Done()
				_, err := store.RecordAlert(recipient, cpuUsage, "", "")
				assert.NoError(t, err)
				_, err = store.Acknowledge(recipient)
				assert.NoError(t, err)
			}(recipient)
		}
	}
	wg.Wait()

	for _, recipient := range []string{"100", "200", "300"} {
		total, unresolved := store.Count(recipient)
		assert.Equal(t, perRecipient, total)
		assert.Equal(t, perRecipient, unresolved)

		seen := make(map[string]bool)
		for _, inst := range store.History(recipient, perRecipient) {
			assert.False(t, seen[inst.ID], "ids must be unique")
			seen[inst.ID] = true
		}
	}
}
