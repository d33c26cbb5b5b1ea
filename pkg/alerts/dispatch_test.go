package alerts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/alerts"
	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	name string
	err  error
	got  []alerts.Alert
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Send(_ context.Context, a alerts.Alert) error {
	n.got = append(n.got, a)
	return n.err
}

func TestDispatcher_Dispatch(t *testing.T) {
	ok := &recordingNotifier{name: "ok"}
	failing := &recordingNotifier{name: "failing", err: errors.New("boom")}
	d := alerts.NewDispatcher([]alerts.Notifier{ok, failing}, nil)

	sent := d.Dispatch(context.Background(), alerts.Alert{Kind: alerts.EventUtilization})
	assert.Equal(t, 1, sent)
	assert.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
	assert.NotEmpty(t, ok.got[0].ID)
	assert.Equal(t, ok.got[0].ID, failing.got[0].ID)
}

func TestDispatcher_Disabled(t *testing.T) {
	d := alerts.NewDispatcher(nil, nil)
	assert.False(t, d.Enabled())
	assert.Equal(t, 0, d.Dispatch(context.Background(), alerts.Alert{}))

	var nilDispatcher *alerts.Dispatcher
	assert.False(t, nilDispatcher.Enabled())
	assert.Equal(t, 0, nilDispatcher.Dispatch(context.Background(), alerts.Alert{}))
}
