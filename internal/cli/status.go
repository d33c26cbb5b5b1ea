package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <request-id>",
	Short: "Show the status of a quota increase request",
	Long: `Read a submitted quota increase request. With --watch the request is polled
until AWS approves, denies or closes it, or until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("watch", "w", false, "Poll until the request is resolved")
	statusCmd.Flags().Duration("interval", 0, "Polling interval (default from watch.interval)")
	statusCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")
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

	out := cmd.OutOrStdout()
	if !watch {
		req, err := svc.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return report.Request(out, format, req)
	}

	if interval <= 0 {
		interval = a.cfg.Watch.Interval
	}
	req, err := svc.Watch(cmd.Context(), args[0], interval, func(r *model.IncreaseRequest) {
		fmt.Fprintln(out, i18n.T("status_update", time.Now().Format("15:04:05"), r.ID, r.Status))
	})
	if err != nil {
		if req == nil || !errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Info("watch interrupted", "request_id", req.ID, "status", req.Status)
	}
	if req.Status.Terminal() {
		a.monitor.RequestResolved(cmd.Context(), svc.Options().Region, req)
	}

	return report.Request(out, format, req)
}
