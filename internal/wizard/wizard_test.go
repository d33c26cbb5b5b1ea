package wizard_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/prompt"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/wizard"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/alerts"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/awsclient"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota/quotatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ec2     *quotatest.FakeEC2
	sq      *quotatest.FakeServiceQuotas
	out     bytes.Buffer
	creds   awsclient.Credentials
	region  string
	calls   int
	connErr error
	monitor *quota.Monitor
}

func newHarness() *harness {
	return &harness{
		ec2: &quotatest.FakeEC2{},
		sq:  &quotatest.FakeServiceQuotas{Applied: quotatest.Float(64), QuotaName: "Standard"},
	}
}

func (h *harness) run(t *testing.T, input string) (*wizard.Result, error) {
	t.Helper()
	i18n.Init("en")
	connect := func(_ context.Context, creds awsclient.Credentials, region string) (*quota.Service, error) {
		h.calls++
		h.creds = creds
		h.region = region
		if h.connErr != nil {
			return nil, h.connErr
		}
		return quota.NewService(h.ec2, h.sq, quota.Options{Region: region}, nil), nil
	}
	w := wizard.New(prompt.New(strings.NewReader(input), &h.out), &h.out, wizard.Options{
		DefaultRegion: "us-east-1",
		Connect:       connect,
		Monitor:       h.monitor,
	})
	return w.Run(context.Background())
}

func TestRun_SubmitsIncrease(t *testing.T) {
	h := newHarness()

	res, err := h.run(t, "\n\n\n\nn\n128\n")
	require.NoError(t, err)

	assert.Equal(t, 1, h.calls)
	assert.Equal(t, awsclient.Credentials{}, h.creds)
	assert.Equal(t, "us-east-1", h.region)
	assert.Equal(t, model.DecisionIncrease, res.Decision)
	require.NotNil(t, res.Request)
	assert.Equal(t, "req-1", res.Request.ID)
	assert.Equal(t, []float64{128}, h.sq.Submitted)

	out := h.out.String()
	assert.Contains(t, out, "Current vCPU quota: 64")
	assert.Contains(t, out, "from 64 to 128")
	assert.Contains(t, out, "Request ID: req-1")
	assert.Contains(t, out, "Status: PENDING")
}

func TestRun_StaticCredentialsAndRegion(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "AKID\nsecret\ntoken\nap-northeast-1\n\n\n")
	require.NoError(t, err)

	assert.Equal(t, awsclient.Credentials{AccessKeyID: "AKID", SecretAccessKey: "secret", SessionToken: "token"}, h.creds)
	assert.Equal(t, "ap-northeast-1", h.region)
}

func TestRun_NotNeeded(t *testing.T) {
	for _, desired := range []string{"32", "64"} {
		h := newHarness()

		res, err := h.run(t, "\n\n\n\nn\n"+desired+"\n")
		require.NoError(t, err)
		assert.Equal(t, model.DecisionNotNeeded, res.Decision)
		assert.Nil(t, res.Request)
		assert.Empty(t, h.sq.Submitted)
		assert.Contains(t, h.out.String(), "no increase needed")
	}
}

func TestRun_BlankDesiredSkips(t *testing.T) {
	h := newHarness()

	res, err := h.run(t, "\n\n\n\n\n\n")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionSkip, res.Decision)
	assert.Empty(t, h.sq.Submitted)
	assert.Contains(t, h.out.String(), "No value entered")
}

func TestRun_EOFSkips(t *testing.T) {
	h := newHarness()

	res, err := h.run(t, "")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionSkip, res.Decision)
	assert.Empty(t, h.sq.Submitted)
}

func TestRun_InvalidDesired(t *testing.T) {
	for _, desired := range []string{"abc", "NaN", "-5", "0", "Inf"} {
		h := newHarness()

		_, err := h.run(t, "\n\n\n\nn\n"+desired+"\n")
		assert.ErrorIs(t, err, model.ErrInvalidDesired, desired)
		assert.Empty(t, h.sq.Submitted)
		assert.Contains(t, h.out.String(), "Invalid input")
	}
}

func TestRun_PartialCredentials(t *testing.T) {
	h := newHarness()

	_, err := h.run(t, "AKID\n\n\n\n")
	assert.ErrorIs(t, err, awsclient.ErrPartialCredentials)
	assert.Equal(t, 0, h.calls)
	assert.Contains(t, h.out.String(), "Could not obtain valid AWS credentials")
}

func TestRun_ConnectError(t *testing.T) {
	h := newHarness()
	h.connErr = awsclient.ErrNoCredentials

	_, err := h.run(t, "\n\n\n\n")
	assert.ErrorIs(t, err, awsclient.ErrNoCredentials)
	assert.Contains(t, h.out.String(), "no aws credentials found")
}

func TestRun_QuotaError(t *testing.T) {
	h := newHarness()
	h.sq.GetErr = errors.New("boom")

	res, err := h.run(t, "\n\n\n\n")
	assert.Error(t, err)
	assert.Nil(t, res.Quota)
	assert.Contains(t, h.out.String(), "Failed to query the quota")
}

func TestRun_DefaultQuota(t *testing.T) {
	h := newHarness()
	h.sq.Applied = nil
	h.sq.Default = 5

	res, err := h.run(t, "\n\n\n\nn\n\n")
	require.NoError(t, err)
	assert.True(t, res.Quota.IsDefault)
	assert.Contains(t, h.out.String(), "Current vCPU quota: 5 (AWS default")
}

func TestRun_UsageWithAlert(t *testing.T) {
	sent := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sent++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newHarness()
	h.sq.Applied = quotatest.Float(8)
	h.ec2.Pages = [][]quotatest.Instance{
		{{ID: "i-1", Type: "m5.large"}, {ID: "i-2", Type: "m5.large"}},
		{{ID: "i-3", Type: "c5.xlarge"}},
	}
	h.ec2.VCPUs = map[string]int32{"m5.large": 2, "c5.xlarge": 4}
	d := alerts.NewDispatcher([]alerts.Notifier{alerts.NewWebhookNotifier(server.URL, "")}, nil)
	h.monitor = quota.NewMonitor(d, 80, nil)

	res, err := h.run(t, "\n\n\n\ny\n16\n")
	require.NoError(t, err)

	require.NotNil(t, res.Usage)
	assert.Equal(t, int64(8), res.Usage.VCPUs)
	assert.Equal(t, 3, res.Usage.RunningInstances)
	assert.Contains(t, h.out.String(), "vCPUs currently in use: 8 across 3 running instances (100.0% of quota)")
	assert.Contains(t, h.out.String(), "Warning: vCPU usage is at 100.0%")
	// One utilisation alert and one request alert.
	assert.Equal(t, 2, sent)
}

func TestRun_UsageError(t *testing.T) {
	h := newHarness()
	h.ec2.InstancesErr = errors.New("throttled")

	_, err := h.run(t, "\n\n\n\nyes\n")
	assert.Error(t, err)
	assert.Contains(t, h.out.String(), "Failed to query vCPUs in use")
	assert.Empty(t, h.sq.Submitted)
}

func TestRun_RequestPending(t *testing.T) {
	h := newHarness()
	h.sq.RequestErr = &sqtypes.ResourceAlreadyExistsException{}

	res, err := h.run(t, "\n\n\n\nn\n200\n")
	assert.ErrorIs(t, err, quota.ErrRequestPending)
	assert.Nil(t, res.Request)
	assert.Contains(t, h.out.String(), "already pending")
}

func TestRun_Chinese(t *testing.T) {
	h := newHarness()
	i18n.Init("zh-CN")
	t.Cleanup(func() { i18n.Init("en") })

	w := wizard.New(prompt.New(strings.NewReader("\n\n\n\nn\n\n"), &h.out), &h.out, wizard.Options{
		Connect: func(_ context.Context, _ awsclient.Credentials, region string) (*quota.Service, error) {
			return quota.NewService(h.ec2, h.sq, quota.Options{Region: region}, nil), nil
		},
	})
	_, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "当前 vCPU 配额为：64")
	assert.Contains(t, h.out.String(), "未输入任何值")
}
