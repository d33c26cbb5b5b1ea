package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/alerts"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
)

// criticalPct is the utilisation at which a warning becomes critical.
const criticalPct = 95.0

// Monitor turns quota readings and request outcomes into alerts.
type Monitor struct {
	dispatcher   *alerts.Dispatcher
	thresholdPct float64
	logger       *slog.Logger
}

// NewMonitor creates a monitor. A thresholdPct of zero or less disables
// utilisation alerts; request alerts are always sent.
func NewMonitor(dispatcher *alerts.Dispatcher, thresholdPct float64, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		dispatcher:   dispatcher,
		thresholdPct: thresholdPct,
		logger:       logger,
	}
}

// Level classifies a utilisation percentage. ok is false below the threshold.
func (m *Monitor) Level(pct float64) (level alerts.AlertLevel, ok bool) {
	if m.thresholdPct <= 0 {
		return "", false
	}
	switch {
	case pct >= 100:
		return alerts.AlertExceeded, true
	case pct >= criticalPct:
		return alerts.AlertCritical, true
	case pct >= m.thresholdPct:
		return alerts.AlertWarning, true
	}
	return "", false
}

// CheckUtilization evaluates usage against the quota and dispatches an alert
// when a threshold is crossed. It returns the level reached, if any.
func (m *Monitor) CheckUtilization(ctx context.Context, q model.QuotaInfo, u *model.UsageSnapshot) (alerts.AlertLevel, bool) {
	if u == nil || q.Value <= 0 {
		return "", false
	}
	pct := u.Utilization(q.Value)
	level, ok := m.Level(pct)
	if !ok {
		return "", false
	}

	m.logger.Warn("quota threshold crossed",
		"quota_code", q.QuotaCode,
		"level", level,
		"pct", pct,
		"vcpus", u.VCPUs,
		"quota", q.Value,
	)

	m.dispatcher.Dispatch(ctx, alerts.Alert{
		Kind:           alerts.EventUtilization,
		Level:          level,
		Region:         q.Region,
		QuotaCode:      q.QuotaCode,
		QuotaName:      q.Name,
		QuotaValue:     q.Value,
		VCPUsUsed:      u.VCPUs,
		UtilizationPct: pct,
		ThresholdPct:   m.thresholdPct,
		Message:        fmt.Sprintf("vCPU usage at %.1f%% (%d / %.0f)", pct, u.VCPUs, q.Value),
	})
	return level, true
}

// RequestSubmitted announces a newly submitted increase request.
func (m *Monitor) RequestSubmitted(ctx context.Context, q model.QuotaInfo, req *model.IncreaseRequest) {
	if req == nil {
		return
	}
	m.dispatcher.Dispatch(ctx, alerts.Alert{
		Kind:         alerts.EventIncreaseRequested,
		Level:        alerts.AlertInfo,
		Region:       q.Region,
		QuotaCode:    q.QuotaCode,
		QuotaName:    q.Name,
		QuotaValue:   q.Value,
		RequestID:    req.ID,
		DesiredValue: req.DesiredValue,
		Status:       string(req.Status),
		Message:      fmt.Sprintf("increase requested from %.0f to %.0f vCPU", q.Value, req.DesiredValue),
	})
}

// RequestResolved announces that a request reached a terminal status.
func (m *Monitor) RequestResolved(ctx context.Context, region string, req *model.IncreaseRequest) {
	if req == nil || !req.Status.Terminal() {
		return
	}
	level := alerts.AlertInfo
	if req.Status != model.StatusApproved {
		level = alerts.AlertWarning
	}
	m.dispatcher.Dispatch(ctx, alerts.Alert{
		Kind:         alerts.EventRequestResolved,
		Level:        level,
		Region:       region,
		QuotaCode:    req.QuotaCode,
		QuotaName:    req.QuotaName,
		RequestID:    req.ID,
		DesiredValue: req.DesiredValue,
		Status:       string(req.Status),
		Message:      fmt.Sprintf("request %s %s", req.ID, req.Status),
	})
}
