package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditKind separates inbound commands from outbound notifications.
type AuditKind string

const (
	AuditCommand      AuditKind = "command"
	AuditNotification AuditKind = "notification"
)

// AuditRecord is an immutable entry of the delivery audit log.
type AuditRecord struct {
	gorm.Model
	Recipient string    `gorm:"index;not null" json:"recipient"`
	Kind      AuditKind `gorm:"not null" json:"kind"`
	Action    string    `gorm:"not null" json:"action"` // e.g. "#resolve", "raised"
	AlertID   string    `gorm:"index" json:"alert_id,omitempty"`
	Success   bool      `json:"success"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}
