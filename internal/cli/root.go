package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/config"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/i18n"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/prompt"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/internal/wizard"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/alerts"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/awsclient"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/catalog"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/quota"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	cfgFile       string
	flagRegion    string
	flagProfile   string
	flagQuotaCode string
	flagLang      string
)

var rootCmd = &cobra.Command{
	Use:   "vqg",
	Short: "vCPU Quota Guardian - check and raise AWS EC2 vCPU quotas",
	Long: `vCPU Quota Guardian reads the EC2 vCPU quota of an AWS account, counts the
vCPUs of running instances and submits quota increase requests.

Run without a subcommand for the interactive walkthrough.`,
	SilenceUsage: true,
	RunE:         runWizard,
}

// Execute runs the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.vqg/config.yaml)")
	pf.StringVar(&flagRegion, "region", "", "AWS region (overrides aws.region)")
	pf.StringVar(&flagProfile, "profile", "", "shared config profile (overrides aws.profile)")
	pf.StringVar(&flagQuotaCode, "quota-code", "", "Service Quotas code (overrides quota.code)")
	pf.StringVar(&flagLang, "lang", "", "message language: en or zh-CN (overrides language)")
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if flagRegion != "" {
		cfg.AWS.Region = flagRegion
	}
	if flagProfile != "" {
		cfg.AWS.Profile = flagProfile
	}
	if flagQuotaCode != "" {
		cfg.Quota.Code = flagQuotaCode
	}
	if flagLang != "" {
		cfg.Language = flagLang
	}
	return cfg, nil
}

// newLogger creates a structured logger from config. Every record carries the
// run id so one invocation can be followed across log lines. Logs go to stderr
// unless logging.file is set.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   true,
		}
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With("run_id", uuid.NewString())
}

// initCatalog loads the quota catalog, preferring catalog.file when set.
func initCatalog(cfg *config.Config) (*catalog.Registry, error) {
	if cfg.Catalog.File == "" {
		return catalog.Default()
	}
	f, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog.FromFile(f)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// app carries what every command needs once config is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Registry
	monitor *quota.Monitor
}

// initApp loads config and wires logging, the catalog and alerting.
func initApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	i18n.Init(cfg.Language)
	logger := newLogger(cfg)

	reg, err := initCatalog(cfg)
	if err != nil {
		return nil, err
	}

	dispatcher := alerts.NewDispatcher(initNotifiers(cfg), logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		catalog: reg,
		monitor: quota.NewMonitor(dispatcher, cfg.Alerts.UtilizationThresholdPct, logger),
	}, nil
}

// newService is a package-level variable so tests can inject fake AWS clients.
var newService = func(ctx context.Context, a *app, creds awsclient.Credentials, region string) (*quota.Service, error) {
	if !creds.Static() && creds.Profile == "" {
		creds.Profile = a.cfg.AWS.Profile
	}
	clients, err := awsclient.New(ctx, awsclient.Options{
		Region:      region,
		Credentials: creds,
		Endpoint:    a.cfg.AWS.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	if err := clients.VerifyCredentials(ctx); err != nil {
		return nil, err
	}
	return quota.NewService(clients.EC2, clients.ServiceQuotas, a.quotaOptions(clients.Region), a.logger), nil
}

func (a *app) quotaOptions(region string) quota.Options {
	return quota.Options{
		ServiceCode:   a.cfg.Quota.ServiceCode,
		QuotaCode:     a.cfg.Quota.Code,
		Region:        region,
		IncludeSpot:   a.cfg.Usage.IncludeSpot,
		MatchFamilies: a.cfg.Usage.MatchFamilies,
		Catalog:       a.catalog,
	}
}

func (a *app) connect(ctx context.Context, creds awsclient.Credentials, region string) (*quota.Service, error) {
	return newService(ctx, a, creds, region)
}

// service connects with the configured region and the default credential chain.
func (a *app) service(ctx context.Context) (*quota.Service, error) {
	svc, err := a.connect(ctx, awsclient.Credentials{}, a.cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("connect to aws: %w", err)
	}
	return svc, nil
}

func runWizard(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := wizard.New(prompt.New(cmd.InOrStdin(), out), out, wizard.Options{
		DefaultRegion: a.cfg.AWS.Region,
		Connect:       a.connect,
		Monitor:       a.monitor,
		Logger:        a.logger,
	})
	res, err := w.Run(cmd.Context())
	if err != nil {
		return err
	}
	a.logger.Info("wizard finished", "region", res.Region, "decision", res.Decision.String())
	return nil
}
