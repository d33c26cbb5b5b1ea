// Package report renders quota check results and increase requests for the
// terminal or for machine consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/catalog"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user-supplied output format. Blank means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Number formats a quota value without trailing zeros: 64 -> "64", 0.5 -> "0.5".
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Check writes a quota check result.
func Check(w io.Writer, format Format, result *model.CheckResult) error {
	if format != FormatTable {
		return encode(w, format, result)
	}

	q := result.Quota
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Region:\t%s\n", q.Region)
	fmt.Fprintf(tw, "Quota:\t%s (%s/%s)\n", q.Name, q.ServiceCode, q.QuotaCode)
	value := Number(q.Value)
	if q.IsDefault {
		value += " (AWS default)"
	}
	fmt.Fprintf(tw, "Value:\t%s\n", value)
	fmt.Fprintf(tw, "Adjustable:\t%t\n", q.Adjustable)

	if u := result.Usage; u != nil {
		fmt.Fprintf(tw, "Running instances:\t%d\n", u.RunningInstances)
		fmt.Fprintf(tw, "vCPUs in use:\t%d\n", u.VCPUs)
		fmt.Fprintf(tw, "Utilization:\t%.1f%%\n", u.Utilization(q.Value))
		if u.Skipped > 0 {
			fmt.Fprintf(tw, "Not counted:\t%d\n", u.Skipped)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if result.Usage == nil || len(result.Usage.ByInstanceType) == 0 {
		return nil
	}
	types := make([]string, 0, len(result.Usage.ByInstanceType))
	for t := range result.Usage.ByInstanceType {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "INSTANCE TYPE\tCOUNT\n")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%d\n", t, result.Usage.ByInstanceType[t])
	}
	return tw.Flush()
}

// Requests writes a list of increase requests.
func Requests(w io.Writer, format Format, requests []model.IncreaseRequest) error {
	if format != FormatTable {
		if requests == nil {
			requests = []model.IncreaseRequest{}
		}
		return encode(w, format, requests)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tQUOTA\tDESIRED\tSTATUS\tCREATED\tCASE\n")
	for _, r := range requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.QuotaCode, Number(r.DesiredValue), r.Status, timestamp(r.Created), dash(r.CaseID))
	}
	return tw.Flush()
}

// Request writes a single increase request.
func Request(w io.Writer, format Format, r *model.IncreaseRequest) error {
	if format != FormatTable {
		return encode(w, format, r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Request ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Quota:\t%s (%s/%s)\n", dash(r.QuotaName), r.ServiceCode, r.QuotaCode)
	fmt.Fprintf(tw, "Desired value:\t%s\n", Number(r.DesiredValue))
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Case ID:\t%s\n", dash(r.CaseID))
	fmt.Fprintf(tw, "Created:\t%s\n", timestamp(r.Created))
	fmt.Fprintf(tw, "Last updated:\t%s\n", timestamp(r.LastUpdated))
	return tw.Flush()
}

// Catalog writes the quota catalog.
func Catalog(w io.Writer, format Format, entries []catalog.Entry) error {
	if format != FormatTable {
		return encode(w, format, entries)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "QUOTA CODE\tNAME\tFAMILIES\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.QuotaCode, e.Name, strings.Join(e.Families, ","))
	}
	return tw.Flush()
}

func encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
