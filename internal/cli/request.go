package cli

import (
	"errors"
	"fmt"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/prompt"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a vCPU quota increase",
	Long: `Submit a quota increase request when --desired is above the current quota.
Nothing is submitted when the quota already covers the desired value.`,
	Args: cobra.NoArgs,
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.Flags().StringP("desired", "d", "", "Desired quota value in vCPUs")
	requestCmd.Flags().BoolP("yes", "y", false, "Submit without asking for confirmation")
	requestCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
	_ = requestCmd.MarkFlagRequired("desired")
}

func runRequest(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("desired")
	yes, _ := cmd.Flags().GetBool("yes")
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

	q, err := svc.Quota(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	desired, decision, err := model.ParseDesired(input, q.Value)
	if err != nil {
		return err
	}
	if decision == model.DecisionSkip {
		return fmt.Errorf("%w: --desired is empty", model.ErrInvalidDesired)
	}
	if decision == model.DecisionNotNeeded {
		fmt.Fprintln(out, i18n.T("not_needed", report.Number(desired), report.Number(q.Value)))
		return nil
	}

	if !yes {
		ok, err := prompt.New(cmd.InOrStdin(), out).YesNo(
			i18n.T("confirm_request", q.QuotaCode, report.Number(q.Value), report.Number(desired)), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, i18n.T("cancelled"))
			return nil
		}
	}

	req, err := svc.RequestIncrease(cmd.Context(), desired)
	if err != nil {
		if errors.Is(err, quota.ErrRequestPending) {
			fmt.Fprintln(out, i18n.T("request_pending"))
		}
		return err
	}
	a.monitor.RequestSubmitted(cmd.Context(), *q, req)

	return report.Request(out, format, req)
}
