package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"webscout/internal/notification"
	"webscout/internal/utils"
	"webscout/pkg/engine"
	"webscout/pkg/logger"
	"webscout/pkg/probe"
)

// Config holds the scan command configuration
type Config struct {
	Target            string
	Mode              string
	Output            string
	DryRun            bool
	NoBrowser         bool
	NoOnline          bool
	NiktoProfile      string
	NiktoArgs         []string
	SensitivePatterns string
	Timeout           time.Duration
	Concurrency       int
	Verbose           bool
}

// App represents the scan application
type App struct {
	config        *Config
	logger        *logger.Logger
	discordClient *notification.NotificationClient
}

// NewApp creates a new application instance
func NewApp(config *Config) (*App, error) {
	logLevel := logrus.InfoLevel
	if config.Verbose {
		logLevel = logrus.DebugLevel
	}
	appLogger := logger.NewLogger(logLevel)

	var discordClient *notification.NotificationClient
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		var err error
		discordClient, err = notification.NewNotificationClient()
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			appLogger.Info("Discord notifications enabled")
		}
	} else {
		appLogger.Info("DISCORD_TOKEN not set - Discord notifications disabled")
	}

	return &App{
		config:        config,
		logger:        appLogger,
		discordClient: discordClient,
	}, nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.discordClient != nil {
		return a.discordClient.Close()
	}
	return nil
}

// buildOptions merges the tuning config file (when present) with the
// command line flags. Flags win for the toggles; the file drives the
// timing settings.
func (a *App) buildOptions() (*probe.Options, error) {
	opts := probe.DefaultOptions()

	if v, err := utils.NewViperConfig(); err == nil {
		var settings probe.Settings
		if uerr := v.Unmarshal(&settings); uerr != nil {
			a.logger.WithError(uerr).Warn("Ignoring malformed tuning config")
		} else {
			if settings.ProbeTimeout > 0 {
				opts.Settings.ProbeTimeout = settings.ProbeTimeout
			}
			if settings.PollInterval > 0 {
				opts.Settings.PollInterval = settings.PollInterval
			}
			if settings.PollBudget > 0 {
				opts.Settings.PollBudget = settings.PollBudget
			}
			if settings.BrowserNavTimeout > 0 {
				opts.Settings.BrowserNavTimeout = settings.BrowserNavTimeout
			}
			if settings.UserAgent != "" {
				opts.Settings.UserAgent = settings.UserAgent
			}
			if settings.SensitiveEndpointsFile != "" {
				opts.Settings.SensitiveEndpointsFile = settings.SensitiveEndpointsFile
			}
		}
	} else {
		a.logger.Debug("No tuning config found, using defaults")
	}

	opts.DryRun = a.config.DryRun
	opts.UseBrowser = !a.config.NoBrowser
	opts.UseOnline = !a.config.NoOnline
	opts.NiktoProfile = probe.NiktoProfile(a.config.NiktoProfile)
	opts.NiktoCustomArgs = a.config.NiktoArgs
	if a.config.SensitivePatterns != "" {
		opts.Settings.SensitiveEndpointsFile = a.config.SensitivePatterns
	}
	if a.config.Timeout > 0 {
		opts.Settings.ProbeTimeout = a.config.Timeout
	}

	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

// Run executes the scan
func (a *App) Run(ctx context.Context) error {
	opts, err := a.buildOptions()
	if err != nil {
		return err
	}

	outputDir := a.config.Output
	if outputDir == "" {
		outputDir, err = utils.CreateScanDirectory("./scans", a.config.Target)
		if err != nil {
			return fmt.Errorf("failed to create scan directory: %w", err)
		}
	}

	coordinatorOpts := []engine.OptFunc{
		engine.WithConcurrency(a.config.Concurrency),
		engine.WithLogger(a.logger),
		engine.WithObserver(a.progressObserver()),
	}
	if a.discordClient != nil {
		coordinatorOpts = append(coordinatorOpts, engine.WithNotifier(a.discordClient))
	}
	coordinator := engine.NewCoordinator(coordinatorOpts...)

	record, err := coordinator.Run(ctx, a.config.Target, outputDir, probe.Mode(a.config.Mode), opts)
	if err != nil {
		a.logger.WithError(err).Error("Scan could not start")
		return err
	}

	a.printSummary(record, outputDir)
	return nil
}

func (a *App) progressObserver() probe.Observer {
	return func(ev probe.ProgressEvent) {
		a.logger.WithFields(logger.Fields{
			"probe":     ev.ProbeID,
			"status":    string(ev.Status),
			"completed": ev.Completed,
			"total":     ev.Total,
		}).Info("Progress")
	}
}

func (a *App) printSummary(record *probe.ScanRecord, outputDir string) {
	counts := record.CountByStatus()

	fmt.Println()
	fmt.Printf("Scan %s finished in %s\n", record.ID, record.FinishedAt.Sub(record.StartedAt).Round(time.Second))
	fmt.Printf("Target: %s  Mode: %s\n", record.Target, record.Mode)
	fmt.Println("========================")
	for id, res := range record.Results {
		line := fmt.Sprintf("  %-16s %s", id, res.Status)
		if res.Error != "" {
			line += "  (" + res.Error + ")"
		}
		fmt.Println(line)
	}
	fmt.Println("========================")
	fmt.Printf("success: %d  partial: %d  failed: %d  skipped: %d\n",
		counts[probe.StatusSuccess], counts[probe.StatusPartialSuccess],
		counts[probe.StatusFailed], counts[probe.StatusSkipped])
	if !record.DryRun {
		fmt.Printf("Results written to %s\n", outputDir)
	}
}

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	config := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Scan a target URL, hostname, or IPv4 address",
		Long:  `Run the probe set for the selected mode against the target and write artifacts plus an aggregated scan record to the output directory`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			config.Target = args[0]

			app, err := NewApp(config)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					app.logger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				app.logger.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Info("Received shutdown signal")
				cancel()
			}()

			return app.Run(ctx)
		},
	}

	scanCmd.Flags().StringVarP(&config.Mode, "mode", "m", "full", "Scan mode (recon|vuln|full)")
	scanCmd.Flags().StringVarP(&config.Output, "output", "o", "", "Output directory (default: timestamped dir under ./scans)")
	scanCmd.Flags().BoolVar(&config.DryRun, "dry-run", false, "Plan the scan without executing anything")
	scanCmd.Flags().BoolVar(&config.NoBrowser, "no-browser", false, "Disable the headless browser probe")
	scanCmd.Flags().BoolVar(&config.NoOnline, "no-online", false, "Disable the online assessment probes")
	scanCmd.Flags().StringVar(&config.NiktoProfile, "nikto-profile", "basic", "Nikto profile (basic|quick|thorough|custom)")
	scanCmd.Flags().StringSliceVar(&config.NiktoArgs, "nikto-args", nil, "Extra nikto arguments for the custom profile")
	scanCmd.Flags().StringVar(&config.SensitivePatterns, "sensitive-endpoints", "", "File of custom endpoint patterns for the browser link audit")
	scanCmd.Flags().DurationVar(&config.Timeout, "timeout", 0, "Per-probe timeout override")
	scanCmd.Flags().IntVar(&config.Concurrency, "concurrency", 4, "Maximum probes running in parallel")
	scanCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")

	return scanCmd
}
