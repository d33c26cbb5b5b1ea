package cli

import (
	"fmt"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the current vCPU quota",
	Long: `Read the vCPU quota of the configured region. With --usage the vCPUs of
running instances are counted too and utilization alerts are sent when a
threshold is crossed.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolP("usage", "u", false, "Count vCPUs of running instances")
	checkCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	withUsage, _ := cmd.Flags().GetBool("usage")
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

	result, err := svc.Check(cmd.Context(), withUsage)
	if err != nil {
		return fmt.Errorf("check quota: %w", err)
	}
	if result.Usage != nil {
		a.monitor.CheckUtilization(cmd.Context(), result.Quota, result.Usage)
	}

	return report.Check(cmd.OutOrStdout(), format, result)
}
