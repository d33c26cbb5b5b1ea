package alerts

import "context"

// AlertLevel indicates the severity of a quota alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"     // Informational, e.g. a request was submitted
	AlertWarning  AlertLevel = "warning"  // Usage crossed the configured threshold
	AlertCritical AlertLevel = "critical" // Usage at or near the quota
	AlertExceeded AlertLevel = "exceeded" // Usage at or above the quota
)

// EventKind identifies what happened.
type EventKind string

const (
	EventUtilization       EventKind = "quota_utilization"
	EventIncreaseRequested EventKind = "quota_increase_requested"
	EventRequestResolved   EventKind = "quota_request_resolved"
)

// Alert describes a quota event worth telling someone about.
type Alert struct {
	ID             string     `json:"id"`
	Kind           EventKind  `json:"kind"`
	Level          AlertLevel `json:"level"`
	Region         string     `json:"region"`
	QuotaCode      string     `json:"quota_code"`
	QuotaName      string     `json:"quota_name,omitempty"`
	QuotaValue     float64    `json:"quota_value"`
	VCPUsUsed      int64      `json:"vcpus_used,omitempty"`
	UtilizationPct float64    `json:"utilization_pct,omitempty"`
	ThresholdPct   float64    `json:"threshold_pct,omitempty"`
	RequestID      string     `json:"request_id,omitempty"`
	DesiredValue   float64    `json:"desired_value,omitempty"`
	Status         string     `json:"status,omitempty"`
	Message        string     `json:"message"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert.
	Send(ctx context.Context, alert Alert) error
}
