package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/obentoo/scanwatch/internal/common/config"
	"github.com/obentoo/scanwatch/internal/common/logger"
	"github.com/obentoo/scanwatch/internal/common/output"
	"github.com/obentoo/scanwatch/internal/common/version"
	"github.com/obentoo/scanwatch/internal/notify"
	"github.com/obentoo/scanwatch/internal/tracking"
	"github.com/spf13/cobra"
)

var (
	// configPath overrides the config file location
	configPath string
	// snapshotPath overrides the configured snapshot file
	snapshotPath string
	// envFiles are dotenv files read before the credentials
	envFiles []string
	// strict makes a failed run exit non-zero
	strict bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check the tracking page once",
	Long: `Fetch the tracking page, detect new scans, notify and save the snapshot.

Examples:
  scanwatch run                           Run with the default config
  scanwatch run --config ./scanwatch.yaml Run with a specific config file
  scanwatch run --snapshot /var/lib/scanwatch/state.json
  scanwatch run --env-file /etc/scanwatch.env
  scanwatch run --strict                  Exit 1 when the run fails`,
	Args: cobra.NoArgs,
	Run:  runTracking,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runTracking performs one run. Errors are logged; the exit status is 0
// unless --strict is set.
func runTracking(cmd *cobra.Command, args []string) {
	result, err := runOnce(cmd.Context())
	if err != nil {
		logger.Error("Error occurred: %v", err)
		if strict {
			logger.Default().Close()
			os.Exit(1)
		}
		return
	}
	if !quiet {
		printSummary(cmd.OutOrStdout(), result)
	}
}

// loadConfig reads the config file named by --config, or the default one,
// and applies command line overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if snapshotPath != "" {
		cfg.Snapshot.Path = snapshotPath
	}
	return cfg, nil
}

// loadProfile returns the configured page profile, or the built-in one.
func loadProfile(cfg *config.Config) (*tracking.Profile, error) {
	path, err := cfg.ProfilePath()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return tracking.DefaultProfile(cfg.Tracking.Waybill), nil
	}

	profile, err := tracking.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	return profile.Expand(cfg.Tracking.Waybill), nil
}

// runOnce wires the components from configuration and performs one run.
func runOnce(ctx context.Context) (*tracking.RunResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentials(ctx, envFiles...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Pushover user key %s, app token %s", config.Masked(creds.UserKey), config.Masked(creds.AppToken))

	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}
	extractor, err := tracking.NewExtractor(profile)
	if err != nil {
		return nil, fmt.Errorf("page profile %q: %w", profile.Name, err)
	}

	path, err := cfg.SnapshotPath()
	if err != nil {
		return nil, err
	}
	store := tracking.NewStore(path)

	userAgent := cfg.Tracking.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	client := tracking.NewClient(
		tracking.WithTimeout(cfg.Tracking.Timeout()),
		tracking.WithUserAgent(userAgent),
		tracking.WithHeaders(cfg.Tracking.Headers),
	)

	notifier := notify.NewPushover(creds,
		notify.WithEndpoint(cfg.Notify.Endpoint),
		notify.WithTitle(cfg.Notify.Title),
	)

	runner := tracking.NewRunner(
		tracking.RunnerConfig{URL: cfg.Tracking.URL},
		client,
		extractor,
		tracking.NewDetector(store),
		notifier,
		store,
	)
	return runner.Run(ctx)
}

// printSummary writes a short report of the run
func printSummary(w io.Writer, result *tracking.RunResult) {
	status := output.StatusUnchanged
	if result.Detection.NewScan {
		status = output.StatusNew
	}

	lines := []string{
		fmt.Sprintf("%s %d scan(s) on page", output.FormatStatus(status), len(result.Record.Events)),
	}
	if result.Notified != nil {
		lines = append(lines, "Notified: "+output.FormatEvent(result.Notified.Location, result.Notified.Details))
	}
	for _, e := range result.Detection.NewEvents {
		lines = append(lines, output.Sprintf(output.Dim, "new: ")+output.FormatEvent(e.Location, e.Details))
	}

	title := "Shipment " + result.Record.WaybillID
	if result.Record.WaybillID == "" {
		title = "Shipment (waybill not found)"
	}
	output.Box(w, title, lines...)
}
