package quota_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/alerts"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota"
	"github.com/stretchr/testify/assert"
)

func newWebhookMonitor(t *testing.T, threshold float64) (*quota.Monitor, *int) {
	t.Helper()
	sent := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sent++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	d := alerts.NewDispatcher([]alerts.Notifier{alerts.NewWebhookNotifier(server.URL, "")}, nil)
	return quota.NewMonitor(d, threshold, nil), &sent
}

func TestMonitor_Level(t *testing.T) {
	m := quota.NewMonitor(nil, 80, nil)

	tests := []struct {
		pct   float64
		level alerts.AlertLevel
		ok    bool
	}{
		{pct: 50},
		{pct: 80, level: alerts.AlertWarning, ok: true},
		{pct: 95, level: alerts.AlertCritical, ok: true},
		{pct: 100, level: alerts.AlertExceeded, ok: true},
		{pct: 130, level: alerts.AlertExceeded, ok: true},
	}
	for _, tt := range tests {
		level, ok := m.Level(tt.pct)
		assert.Equal(t, tt.ok, ok, "pct %.0f", tt.pct)
		assert.Equal(t, tt.level, level, "pct %.0f", tt.pct)
	}

	disabled := quota.NewMonitor(nil, 0, nil)
	_, ok := disabled.Level(150)
	assert.False(t, ok)
}

func TestMonitor_CheckUtilization(t *testing.T) {
	m, sent := newWebhookMonitor(t, 80)
	q := model.QuotaInfo{QuotaCode: "L-1216C47A", Value: 100}

	_, ok := m.CheckUtilization(context.Background(), q, &model.UsageSnapshot{VCPUs: 50})
	assert.False(t, ok)
	assert.Equal(t, 0, *sent)

	level, ok := m.CheckUtilization(context.Background(), q, &model.UsageSnapshot{VCPUs: 96})
	assert.True(t, ok)
	assert.Equal(t, alerts.AlertCritical, level)
	assert.Equal(t, 1, *sent)

	_, ok = m.CheckUtilization(context.Background(), q, nil)
	assert.False(t, ok)
}

func TestMonitor_RequestEvents(t *testing.T) {
	m, sent := newWebhookMonitor(t, 80)
	q := model.QuotaInfo{QuotaCode: "L-1216C47A", Value: 64}

	m.RequestSubmitted(context.Background(), q, &model.IncreaseRequest{ID: "req-1", DesiredValue: 128, Status: model.StatusPending})
	assert.Equal(t, 1, *sent)

	m.RequestResolved(context.Background(), "us-east-1", &model.IncreaseRequest{ID: "req-1", Status: model.StatusPending})
	assert.Equal(t, 1, *sent)

	m.RequestResolved(context.Background(), "us-east-1", &model.IncreaseRequest{ID: "req-1", Status: model.StatusApproved})
	assert.Equal(t, 2, *sent)

	m.RequestSubmitted(context.Background(), q, nil)
	assert.Equal(t, 2, *sent)
}
