package cli

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past increase requests for the quota",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("status", "s", "", "Only show requests in this status (e.g. PENDING, APPROVED)")
	historyCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetString("status")
	output, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(output)
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}

	requests, err := svc.History(cmd.Context(), model.RequestStatus(strings.ToUpper(strings.TrimSpace(status))))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(requests) == 0 && format == report.FormatTable {
		fmt.Fprintln(out, i18n.T("no_history", svc.Options().QuotaCode))
		return nil
	}
	return report.Requests(out, format, requests)
}
