// Package wizard implements the interactive quota check and increase flow
// that runs when vqg is started without a subcommand.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/prompt"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/awsclient"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
)

// ConnectFunc builds a quota service for the given credentials and region.
type ConnectFunc func(ctx context.Context, creds awsclient.Credentials, region string) (*quota.Service, error)

// Options configures a Wizard.
type Options struct {
	DefaultRegion string
	Connect       ConnectFunc
	// Monitor is optional; without it no alerts are sent.
	Monitor *quota.Monitor
	Logger  *slog.Logger
}

// Result records what a run did.
type Result struct {
	Region   string
	Quota    *model.QuotaInfo
	Usage    *model.UsageSnapshot
	Decision model.Decision
	Request  *model.IncreaseRequest
}

// Wizard walks the user through the quota check.
type Wizard struct {
	prompter *prompt.Prompter
	out      io.Writer
	opts     Options
	logger   *slog.Logger
}

// New creates a wizard that asks questions through p and prints to out.
func New(p *prompt.Prompter, out io.Writer, opts Options) *Wizard {
	if opts.DefaultRegion == "" {
		opts.DefaultRegion = awsclient.DefaultRegion
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Wizard{prompter: p, out: out, opts: opts, logger: logger}
}

// Run executes the flow once. Outcomes where nothing needs doing (no value
// entered, value not above the current quota) return a nil error.
func (w *Wizard) Run(ctx context.Context) (*Result, error) {
	res := &Result{Decision: model.DecisionSkip}
	w.println(i18n.T("welcome"))

	creds, err := w.askCredentials()
	if err != nil {
		return res, err
	}
	if err := creds.Validate(); err != nil {
		w.println(i18n.T("error_credentials"))
		w.println(i18n.T("error_detail", err))
		return res, err
	}

	region, err := w.prompter.Line(i18n.T("prompt_region", w.opts.DefaultRegion))
	if err != nil {
		return res, err
	}
	if region == "" {
		region = w.opts.DefaultRegion
	}
	res.Region = region

	svc, err := w.opts.Connect(ctx, creds, region)
	if err != nil {
		w.println(i18n.T("error_credentials"))
		w.println(i18n.T("error_detail", quota.Describe(err)))
		return res, fmt.Errorf("connect to aws: %w", err)
	}
	w.logger.Debug("clients ready", "region", region, "static_credentials", creds.Static())

	w.println(i18n.T("querying_quota"))
	q, err := svc.Quota(ctx)
	if err != nil {
		w.println(i18n.T("error_quota", quota.Describe(err)))
		return res, err
	}
	res.Quota = q
	if q.IsDefault {
		w.println(i18n.T("current_quota_default", report.Number(q.Value)))
	} else {
		w.println(i18n.T("current_quota", report.Number(q.Value)))
	}

	checkUsage, err := w.prompter.YesNo(i18n.T("prompt_check_usage"), false)
	if err != nil {
		return res, err
	}
	if checkUsage {
		u, err := svc.Usage(ctx)
		if err != nil {
			w.println(i18n.T("error_usage", quota.Describe(err)))
			return res, err
		}
		res.Usage = u
		w.reportUsage(ctx, *q, u)
	}

	w.println(i18n.T("increase_hint"))
	input, err := w.prompter.Line(i18n.T("prompt_desired"))
	if err != nil {
		return res, err
	}
	desired, decision, err := model.ParseDesired(input, q.Value)
	res.Decision = decision
	if err != nil {
		w.println(i18n.T("invalid_input"))
		return res, err
	}

	switch decision {
	case model.DecisionSkip:
		w.println(i18n.T("no_input"))
		return res, nil
	case model.DecisionNotNeeded:
		w.println(i18n.T("not_needed", report.Number(desired), report.Number(q.Value)))
		return res, nil
	}

	w.println(i18n.T("submitting", report.Number(q.Value), report.Number(desired)))
	req, err := svc.RequestIncrease(ctx, desired)
	if err != nil {
		if errors.Is(err, quota.ErrRequestPending) {
			w.println(i18n.T("request_pending"))
		} else {
			w.println(i18n.T("error_request", quota.Describe(err)))
		}
		return res, err
	}
	res.Request = req

	w.println(i18n.T("submitted"))
	w.println(i18n.T("request_id", req.ID))
	w.println(i18n.T("request_status", req.Status))
	if w.opts.Monitor != nil {
		w.opts.Monitor.RequestSubmitted(ctx, *q, req)
	}
	return res, nil
}

func (w *Wizard) askCredentials() (awsclient.Credentials, error) {
	var creds awsclient.Credentials
	var err error
	if creds.AccessKeyID, err = w.prompter.Line(i18n.T("prompt_access_key")); err != nil {
		return creds, err
	}
	if creds.SecretAccessKey, err = w.prompter.Secret(i18n.T("prompt_secret_key")); err != nil {
		return creds, err
	}
	if creds.SessionToken, err = w.prompter.Secret(i18n.T("prompt_session_token")); err != nil {
		return creds, err
	}
	return creds, nil
}

func (w *Wizard) reportUsage(ctx context.Context, q model.QuotaInfo, u *model.UsageSnapshot) {
	pct := u.Utilization(q.Value)
	w.println(i18n.T("current_usage", u.VCPUs, u.RunningInstances, pct))
	if u.Skipped > 0 {
		w.println(i18n.T("usage_skipped", u.Skipped))
	}
	if w.opts.Monitor == nil {
		return
	}
	if level, ok := w.opts.Monitor.CheckUtilization(ctx, q, u); ok {
		w.println(i18n.T("alert_threshold", pct, level))
	}
}

func (w *Wizard) println(s string) {
	fmt.Fprintln(w.out, s)
}
