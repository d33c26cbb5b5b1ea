package alerts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Dispatcher fans an alert out to every configured notifier.
type Dispatcher struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil logger discards failures.
func NewDispatcher(notifiers []Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// Enabled reports whether any notifier is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.notifiers) > 0
}

// Dispatch sends the alert to all notifiers and returns how many accepted it.
// Delivery failures are logged, not returned.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) int {
	if !d.Enabled() {
		return 0
	}
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}

	sent := 0
	for _, notifier := range d.notifiers {
		if err := notifier.Send(ctx, alert); err != nil {
			d.logger.Error("send alert failed",
				"notifier", notifier.Name(),
				"kind", alert.Kind,
				"quota_code", alert.QuotaCode,
				"error", err,
			)
			continue
		}
		sent++
	}
	return sent
}
