package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/portfolio-lab/internal/config"
	"github.com/yourusername/portfolio-lab/internal/database"
	"github.com/yourusername/portfolio-lab/internal/datasource"
	"github.com/yourusername/portfolio-lab/internal/health"
	"github.com/yourusername/portfolio-lab/internal/logger"
	"github.com/yourusername/portfolio-lab/internal/metrics"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/report"
	"github.com/yourusername/portfolio-lab/internal/repository"
	"github.com/yourusername/portfolio-lab/internal/scheduler"
	"github.com/yourusername/portfolio-lab/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

const jobName = "daily-report"

var (
	configFile string
	once       bool
	schedule   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.Flags().BoolVar(&once, "once", false, "Generate one report and exit")
	rootCmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression overriding report.schedule")
}

var rootCmd = &cobra.Command{
	Use:   "daily-report",
	Short: "Append the automated portfolio report to the daily log",
	Long: `Loads the saved allocation (or the default portfolio), analyzes the last
three months without rebalancing and appends a report entry to the log file.
Without --once it runs on the configured cron schedule and serves health and
metrics endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if schedule != "" {
		cfg.Report.Schedule = schedule
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log := logger.NewLogger(cfg.App.LogLevel)
	log.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Starting daily report")

	var db *database.DB
	if cfg.Database.Enabled {
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
	}

	svc, err := buildService(cfg, db, log)
	if err != nil {
		return err
	}

	if once || cfg.Report.Schedule == "" {
		_, err := svc.Generate(ctx)
		return err
	}
	return serve(ctx, cfg, db, svc, log)
}

func buildService(cfg *config.Config, db *database.DB, log *logrus.Logger) (*service.DailyReportService, error) {
	engineCfg, err := portfolio.FromConfig(&cfg.Portfolio)
	if err != nil {
		return nil, fmt.Errorf("invalid portfolio configuration: %w", err)
	}
	source, err := datasource.NewFactory(log).NewPriceSource(cfg.DataSource)
	if err != nil {
		return nil, err
	}
	repos := repository.NewRepositories(db, cfg.Report.SnapshotPath)

	return service.NewDailyReportService(service.DailyReportConfig{
		Analysis:  service.NewAnalysisService(source, portfolio.NewEngine(engineCfg, log), log, cfg.DataSource.Concurrency),
		Snapshots: repos.Snapshot,
		Reports:   repos.Report,
		Writer:    report.NewLogWriter(cfg.Report.LogPath),
		Logger:    log,
		Lookback:  cfg.Report.Lookback,
	}), nil
}

// serve runs the scheduler until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, db *database.DB, svc *service.DailyReportService, log *logrus.Logger) error {
	healthCfg := health.Config{
		ServiceName: jobName,
		Version:     Version,
		MetricsPath: cfg.Metrics.Path,
		Logger:      log,
	}
	if cfg.Metrics.Port > 0 {
		healthCfg.Port = strconv.Itoa(cfg.Metrics.Port)
	}
	if cfg.Metrics.Enabled {
		healthCfg.Metrics = metrics.Handler()
	}
	if db != nil {
		healthCfg.DB = db
	}
	healthServer := health.NewServer(healthCfg)
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(log, time.Local)
	sched.OnRun(func(name string, finishedAt time.Time, err error) {
		healthServer.RecordRun(finishedAt, err)
	})
	if err := sched.Schedule(jobName, cfg.Report.Schedule, svc); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	healthServer.SetReady(true)
	log.WithFields(logrus.Fields{
		"schedule": cfg.Report.Schedule,
		"next_run": sched.NextRun(jobName),
	}).Info("Daily report scheduled")

	<-ctx.Done()
	healthServer.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}
