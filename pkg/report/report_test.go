package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/catalog"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() *model.CheckResult {
	return &model.CheckResult{
		Quota: model.QuotaInfo{
			ServiceCode: "ec2",
			QuotaCode:   "L-1216C47A",
			Name:        "Running On-Demand Standard (A, C, D, H, I, M, R, T, Z) instances",
			Value:       64,
			Adjustable:  true,
			Region:      "us-east-1",
		},
		Usage: &model.UsageSnapshot{
			RunningInstances: 3,
			VCPUs:            16,
			ByInstanceType:   map[string]int{"m5.large": 2, "c5.2xlarge": 1},
			Skipped:          1,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{in: "", want: report.FormatTable},
		{in: "table", want: report.FormatTable},
		{in: "JSON", want: report.FormatJSON},
		{in: " yaml ", want: report.FormatYAML},
		{in: "csv", wantErr: true},
	}
	for _, tt := range tests {
		got, err := report.ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "64", report.Number(64))
	assert.Equal(t, "0.5", report.Number(0.5))
	assert.Equal(t, "1152", report.Number(1152.0))
}

func TestCheck_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Check(&buf, report.FormatTable, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "L-1216C47A")
	assert.Contains(t, out, "vCPUs in use:")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "Not counted:")
	assert.Contains(t, out, "INSTANCE TYPE")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("c5.2xlarge")), bytes.Index(buf.Bytes(), []byte("m5.large")))
}

func TestCheck_TableDefaultWithoutUsage(t *testing.T) {
	result := sampleResult()
	result.Usage = nil
	result.Quota.IsDefault = true

	var buf bytes.Buffer
	require.NoError(t, report.Check(&buf, report.FormatTable, result))
	assert.Contains(t, buf.String(), "64 (AWS default)")
	assert.NotContains(t, buf.String(), "vCPUs in use")
}

func TestCheck_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Check(&buf, report.FormatJSON, sampleResult()))

	var decoded model.CheckResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 64.0, decoded.Quota.Value)
	require.NotNil(t, decoded.Usage)
	assert.Equal(t, int64(16), decoded.Usage.VCPUs)
}

func TestCheck_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Check(&buf, report.FormatYAML, sampleResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	q, ok := decoded["quota"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "L-1216C47A", q["quota_code"])
}

func TestRequests(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reqs := []model.IncreaseRequest{
		{ID: "req-1", QuotaCode: "L-1216C47A", DesiredValue: 128, Status: model.StatusPending, Created: created},
		{ID: "req-2", QuotaCode: "L-1216C47A", DesiredValue: 256, Status: model.StatusApproved, CaseID: "case-9"},
	}

	var buf bytes.Buffer
	require.NoError(t, report.Requests(&buf, report.FormatTable, reqs))
	out := buf.String()
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "case-9")

	buf.Reset()
	require.NoError(t, report.Requests(&buf, report.FormatJSON, nil))
	assert.JSONEq(t, "[]", buf.String())
}

func TestRequest_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Request(&buf, report.FormatTable, &model.IncreaseRequest{
		ID: "req-7", ServiceCode: "ec2", QuotaCode: "L-1216C47A", DesiredValue: 96, Status: model.StatusCaseOpened,
	}))
	out := buf.String()
	assert.Contains(t, out, "req-7")
	assert.Contains(t, out, "CASE_OPENED")
	assert.Contains(t, out, "96")
}

func TestCatalog(t *testing.T) {
	reg, err := catalog.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.Catalog(&buf, report.FormatTable, reg.All()))
	assert.Contains(t, buf.String(), "L-1216C47A")
	assert.Contains(t, buf.String(), "QUOTA CODE")

	buf.Reset()
	require.NoError(t, report.Catalog(&buf, report.FormatJSON, reg.All()))
	var decoded []catalog.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, len(reg.All()))
}
