package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"zabbix-chatops/internal/models"

	"github.com/google/uuid"
)

// AlertStore keeps the raised alerts of every recipient in memory.
// Each recipient has its own append-only log; mutations of one log are
// serialized by that log's mutex so "latest instance" stays well defined.
// The store never evicts entries.
type AlertStore struct {
	mu   sync.Mutex // guards logs, not their contents
	logs map[string]*recipientLog

	now   func() time.Time
	newID func() string
}

type recipientLog struct {
	mu     sync.Mutex
	alerts []*models.AlertInstance
}

// NewAlertStore creates an empty store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		logs:  make(map[string]*recipientLog),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock replaces the time source, for tests.
func (s *AlertStore) WithClock(now func() time.Time) *AlertStore {
	s.now = now
	return s
}

func (s *AlertStore) log(recipient string, create bool) *recipientLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[recipient]
	if !ok && create {
		l = &recipientLog{}
		s.logs[recipient] = l
	}
	return l
}

// RecordAlert appends a new unacknowledged, unresolved instance.
func (s *AlertStore) RecordAlert(recipient string, def *models.AlertDefinition, artifactRef, details string) (models.AlertInstance, error) {
	if strings.TrimSpace(recipient) == "" {
		return models.AlertInstance{}, fmt.Errorf("%w: empty recipient", ErrInvalidInput)
	}
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return models.AlertInstance{}, fmt.Errorf("%w: missing alert definition", ErrInvalidInput)
	}

	l := s.log(recipient, true)
	l.mu.Lock()
	defer l.mu.Unlock()

	inst := &models.AlertInstance{
		ID:          s.newID(),
		Recipient:   recipient,
		Definition:  def,
		RaisedAt:    s.now(),
		Details:     details,
		ArtifactRef: artifactRef,
	}
	l.alerts = append(l.alerts, inst)
	return *inst, nil
}

// Latest returns the most recently raised instance of recipient.
func (s *AlertStore) Latest(recipient string) (models.AlertInstance, bool) {
	l := s.log(recipient, false)
	if l == nil {
		return models.AlertInstance{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.alerts) == 0 {
		return models.AlertInstance{}, false
	}
	return *l.alerts[len(l.alerts)-1], true
}

// History returns up to limit most recent instances, oldest first.
func (s *AlertStore) History(recipient string, limit int) []models.AlertInstance {
	l := s.log(recipient, false)
	if l == nil || limit <= 0 {
		return []models.AlertInstance{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	start := len(l.alerts) - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.AlertInstance, 0, len(l.alerts)-start)
	for _, inst := range l.alerts[start:] {
		out = append(out, *inst)
	}
	return out
}

// Count returns the number of instances of recipient and how many are unresolved.
func (s *AlertStore) Count(recipient string) (total, unresolved int) {
	l := s.log(recipient, false)
	if l == nil {
		return 0, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, inst := range l.alerts {
		if !inst.Resolved {
			unresolved++
		}
	}
	return len(l.alerts), unresolved
}

// Acknowledge marks the latest instance as acknowledged. Repeated calls
// re-stamp AcknowledgedAt.
func (s *AlertStore) Acknowledge(recipient string) (models.AlertInstance, error) {
	return s.mutateLatest(recipient, func(inst *models.AlertInstance, now time.Time) {
		inst.Acknowledged = true
		inst.AcknowledgedAt = &now
	})
}

// Resolve marks the latest instance as resolved. Resolving an already resolved
// instance re-applies the resolution; there is no terminal lock.
func (s *AlertStore) Resolve(recipient, artifactRef string) (models.AlertInstance, error) {
	return s.mutateLatest(recipient, func(inst *models.AlertInstance, now time.Time) {
		inst.Resolved = true
		inst.ResolvedAt = &now
		inst.ResolutionArtifactRef = artifactRef
	})
}

// AttachResolutionArtifact records the rendered resolution chart of a specific
// instance once asynchronous rendering has finished.
func (s *AlertStore) AttachResolutionArtifact(recipient, alertID, artifactRef string) error {
	l := s.log(recipient, false)
	if l == nil {
		return fmt.Errorf("%w: recipient %s", ErrNoActiveAlert, recipient)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.alerts) - 1; i >= 0; i-- {
		if l.alerts[i].ID == alertID {
			l.alerts[i].ResolutionArtifactRef = artifactRef
			return nil
		}
	}
	return fmt.Errorf("%w: alert %s", ErrNoActiveAlert, alertID)
}

func (s *AlertStore) mutateLatest(recipient string, fn func(inst *models.AlertInstance, now time.Time)) (models.AlertInstance, error) {
	l := s.log(recipient, false)
	if l == nil {
		return models.AlertInstance{}, fmt.Errorf("%w: recipient %s", ErrNoActiveAlert, recipient)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.alerts) == 0 {
		return models.AlertInstance{}, fmt.Errorf("%w: recipient %s", ErrNoActiveAlert, recipient)
	}
	inst := l.alerts[len(l.alerts)-1]
	fn(inst, s.now())
	return *inst, nil
}
