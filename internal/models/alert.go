package models

import "time"

// AlertDefinition describes a monitored Zabbix condition. Definitions are loaded
// once into the catalog and shared read-only by every AlertInstance.
type AlertDefinition struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Severity    string  `json:"severity" yaml:"severity"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	Unit        string  `json:"unit" yaml:"unit"`
	Host        string  `json:"host" yaml:"host"`
	Item        string  `json:"item" yaml:"item"`
}

// AlertInstance is one raised occurrence of an AlertDefinition for a recipient.
// AcknowledgedAt is non-nil iff Acknowledged, ResolvedAt is non-nil iff Resolved.
type AlertInstance struct {
	ID         string           `json:"id"`
	Recipient  string           `json:"recipient"`
	Definition *AlertDefinition `json:"definition"`
	RaisedAt   time.Time        `json:"raised_at"`
	// Details carries the problem text of a real Zabbix message, if any.
	Details string `json:"details,omitempty"`

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	ArtifactRef           string `json:"artifact_ref,omitempty"`
	ResolutionArtifactRef string `json:"resolution_artifact_ref,omitempty"`
}

// RaiseRequest asks the gateway to raise a new alert for a recipient.
type RaiseRequest struct {
	Recipient  string
	Definition *AlertDefinition
	Details    string
}

// RenderRequest is the input of a chart renderer.
type RenderRequest struct {
	AlertName  string
	Threshold  float64
	Unit       string
	Host       string
	OutputPath string
	// Resolved selects the "back to normal" rendering.
	Resolved bool
}
