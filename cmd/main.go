// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mradaci/WinGamingDiag/internal/agent"
	"github.com/mradaci/WinGamingDiag/internal/history"
	"github.com/mradaci/WinGamingDiag/internal/redact"
	"github.com/mradaci/WinGamingDiag/internal/report"
	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
	"github.com/mradaci/WinGamingDiag/pkg/scan/analysis"
	"github.com/mradaci/WinGamingDiag/pkg/scan/collectors"
)

const appDir = "WinGamingDiag"

var (
	// CLI options (alphabetical order)
	eventLogDays int
	htmlReport   bool
	noColor      bool
	noHistory    bool
	outputPath   string
	quickMode    bool
	verbose      bool

	workerOutput string

	historyDays  int
	historyLimit int

	// exitCode carries the scan outcome through cobra back to main.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           "wingamingdiag",
	Short:         "Gaming-focused Windows system diagnostics",
	Long:          "Scans the system for hardware, driver, network and configuration problems that hurt gaming, scores overall health, and writes a report.",
	Version:       scan.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runScan(cmd)
		exitCode = code
		return err
	},
}

var workerCmd = &cobra.Command{
	Use:    agent.WorkerSubcommand,
	Short:  "Internal: collect hardware facts and write them to --output",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scans and the health trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&quickMode, "quick", false,
		"Skip the benchmark suite for a faster scan")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Show per-collector progress and debug logging")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false,
		"Disable colored console output")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Report file path (default: Desktop, falling back to the current directory)")
	rootCmd.Flags().BoolVar(&htmlReport, "html", false,
		"Also write an HTML report next to the text report")
	rootCmd.Flags().IntVar(&eventLogDays, "days", 7,
		"Event log analysis window in days")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false,
		"Do not record this scan in the local history database")

	workerCmd.Flags().StringVar(&workerOutput, "output", "",
		"File to write the hardware payload to")
	_ = workerCmd.MarkFlagRequired("output")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10,
		"Number of recent scans to list")
	historyCmd.Flags().IntVar(&historyDays, "days", 30,
		"Trend analysis window in days")

	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// newLogger builds the zap-backed logr used everywhere. Logs go to stderr so
// the console renderer owns stdout.
func newLogger(verbose bool) (logr.Logger, func()) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }
}

func runScan(cmd *cobra.Command) (int, error) {
	logger, flush := newLogger(verbose)
	defer flush()

	thresholds := loadThresholds(logger)

	provider, err := facts.NewWMIProvider(logger, facts.DefaultOptions())
	if err != nil {
		return 1, fmt.Errorf("failed to initialize fact provider: %w", err)
	}
	registry := facts.NewRegistry()
	console := report.NewConsole(cmd.OutOrStdout(), verbose, noColor)

	config := agent.DefaultConfig()
	config.Quick = quickMode
	config.EventLogDays = eventLogDays
	config.Thresholds = thresholds

	a, err := agent.New(logger, config, provider, registry, agent.NewSubprocessRunner(logger), console)
	if err != nil {
		return 1, fmt.Errorf("failed to initialize agent: %w", err)
	}

	result, err := a.RunFullDiagnostic(cmd.Context())
	if err != nil {
		return 1, fmt.Errorf("diagnostic failed: %w", err)
	}
	console.Render(result)

	redactor := redact.New()
	path := outputPath
	if path == "" {
		path = report.DefaultReportPath(time.Now())
	}
	if err := report.SaveText(path, result, redactor); err != nil {
		logger.Error(err, "Failed to save text report", "path", path)
	} else {
		console.ReportSaved(path)
	}
	if htmlReport {
		htmlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
		if err := report.SaveHTML(htmlPath, result, redactor); err != nil {
			logger.Error(err, "Failed to save html report", "path", htmlPath)
		} else {
			console.ReportSaved(htmlPath)
		}
	}

	if !noHistory {
		recordHistory(logger, result)
	}

	return result.ExitCode(), nil
}

// loadThresholds reads the user's threshold override file when present.
// Any load failure falls back to the built-in defaults.
func loadThresholds(logger logr.Logger) analysis.Thresholds {
	path := filepath.Join(xdg.ConfigHome, appDir, "thresholds.yaml")
	if _, err := os.Stat(path); err != nil {
		return analysis.DefaultThresholds()
	}
	thresholds, err := analysis.LoadThresholds(path)
	if err != nil {
		logger.Error(err, "Ignoring invalid thresholds file", "path", path)
	}
	return thresholds
}

func historyPath() string {
	return filepath.Join(xdg.DataHome, appDir, "history.db")
}

func recordHistory(logger logr.Logger, result scan.DiagnosticResult) {
	store, err := history.Open(historyPath())
	if err != nil {
		logger.Error(err, "Failed to open history database")
		return
	}
	defer store.Close()
	if err := store.Record(result); err != nil {
		logger.Error(err, "Failed to record scan history")
	}
}

// runWorker is the hidden subprocess entry point: it collects hardware facts
// in this (disposable) process and hands them back through a file.
func runWorker(cmd *cobra.Command) error {
	logger, flush := newLogger(false)
	defer flush()

	provider, err := facts.NewWMIProvider(logger, facts.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to initialize fact provider: %w", err)
	}
	hw, err := collectors.NewHardwareCollector(logger, provider, facts.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to initialize hardware collector: %w", err)
	}

	snapshot, errs := hw.CollectAll(cmd.Context())
	payload := agent.WorkerPayload{Hardware: snapshot, Errors: errs}
	return agent.WriteWorkerPayload(workerOutput, payload)
}

func runHistory(cmd *cobra.Command) error {
	store, err := history.Open(historyPath())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No scans recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-14s  %-20s  %-6s  %s\n", "SCAN", "WHEN", "SCORE", "ISSUES (C/H/M/L)")
	for _, e := range entries {
		id := e.ScanID
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Fprintf(out, "%-14s  %-20s  %-6d  %d (%d/%d/%d/%d)\n",
			id,
			humanize.Time(e.Timestamp),
			e.HealthScore,
			e.TotalIssues, e.Critical, e.High, e.Medium, e.Low)
	}

	trend, err := store.AnalyzeTrend(time.Now().AddDate(0, 0, -historyDays))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nHealth trend over the last %d days: %s\n", historyDays, trend)
	return nil
}
