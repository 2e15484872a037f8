package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/portfolio-lab/internal/allocation"
	"github.com/yourusername/portfolio-lab/internal/config"
	"github.com/yourusername/portfolio-lab/internal/database"
	"github.com/yourusername/portfolio-lab/internal/datasource"
	"github.com/yourusername/portfolio-lab/internal/logger"
	"github.com/yourusername/portfolio-lab/internal/models"
	"github.com/yourusername/portfolio-lab/internal/portfolio"
	"github.com/yourusername/portfolio-lab/internal/report"
	"github.com/yourusername/portfolio-lab/internal/repository"
	"github.com/yourusername/portfolio-lab/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile  string
	assets      []string
	classes     []string
	rawWeights  map[string]string
	equalWeight bool
	rebalance   string
	lookback    string
	exportPath  string
	saveConfig  bool
	jsonOutput  bool

	cfg *config.Config
	log *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.Flags().StringSliceVarP(&assets, "assets", "a", nil, "Tickers to analyze (comma separated)")
	rootCmd.Flags().StringSliceVar(&classes, "class", nil, "Asset classes whose default tickers are analyzed when --assets is empty")
	rootCmd.Flags().StringToStringVarP(&rawWeights, "weights", "w", nil, "Raw weights per ticker, normalized by their total (e.g. MC.PA=2,AIR.PA=1)")
	rootCmd.Flags().BoolVar(&equalWeight, "equal-weight", false, "Weight every ticker equally")
	rootCmd.Flags().StringVarP(&rebalance, "rebalance", "r", "", "Rebalancing policy: none, monthly, quarterly, yearly")
	rootCmd.Flags().StringVarP(&lookback, "lookback", "l", "", "Price window: "+strings.Join(models.Lookbacks, ", "))
	rootCmd.Flags().StringVar(&exportPath, "export", "", "Write normalized and portfolio series to this CSV file")
	rootCmd.Flags().BoolVar(&saveConfig, "save", false, "Save the allocation for the daily report")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(classesCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Simulate a portfolio and report risk and diversification",
	Long: `Fetches daily prices for the selected assets, simulates the weighted
portfolio under the chosen rebalancing policy and prints return, volatility,
diversification effect and the return correlation matrix.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cmd)
	},
	SilenceUsage: true,
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List configured asset classes and their tickers",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, class := range allocation.Classes(cfg.Universes) {
			u := cfg.Universes[class]
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s (defaults: %s)\n",
				class, strings.Join(u.Tickers, ", "), strings.Join(u.Defaults, ", "))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "analyze %s (%s)\n", Version, GitCommit)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log = logger.NewLogger(cfg.App.LogLevel)
	return nil
}

func run(ctx context.Context, cmd *cobra.Command) error {
	tickers, err := selectTickers()
	if err != nil {
		return err
	}
	weights, err := selectWeights(tickers)
	if err != nil {
		return err
	}

	policyName := rebalance
	if policyName == "" {
		policyName = cfg.Portfolio.Rebalance
	}
	policy, err := portfolio.ParsePolicy(policyName)
	if err != nil {
		return err
	}
	window := lookback
	if window == "" {
		window = cfg.Portfolio.Lookback
	}

	engineCfg, err := portfolio.FromConfig(&cfg.Portfolio)
	if err != nil {
		return fmt.Errorf("invalid portfolio configuration: %w", err)
	}
	source, err := datasource.NewFactory(log).NewPriceSource(cfg.DataSource)
	if err != nil {
		return err
	}
	svc := service.NewAnalysisService(source, portfolio.NewEngine(engineCfg, log), log, cfg.DataSource.Concurrency)

	result, err := svc.Analyze(ctx, service.AnalysisRequest{
		Tickers:   tickers,
		Weights:   weights,
		Policy:    policy,
		Lookback:  window,
		MinAssets: cfg.Portfolio.MinAssets,
		Tolerance: cfg.Portfolio.WeightTolerance,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Simulation  *portfolio.SimulationResult  `json:"simulation"`
			Metrics     portfolio.MetricsResult      `json:"metrics"`
			Correlation *portfolio.CorrelationMatrix `json:"correlation"`
			Summary     portfolio.Summary            `json:"summary"`
			Warnings    []service.Warning            `json:"warnings,omitempty"`
		}{result.Simulation, result.Metrics, result.Correlation, result.Summary, result.Warnings}); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, report.GenerateConsoleReport(report.Analysis{
			Simulation:  result.Simulation,
			Metrics:     result.Metrics,
			Correlation: result.Correlation,
			Weights:     weights,
			Warnings:    result.WarningMessages(),
		}))
	}

	if exportPath != "" {
		path := exportPath
		if !filepath.IsAbs(path) && cfg.Report.CSVDir != "" {
			path = filepath.Join(cfg.Report.CSVDir, path)
		}
		if err := report.ExportSeriesCSV(result.Simulation, path); err != nil {
			return err
		}
		log.WithField("path", path).Info("Exported value series")
	}

	if saveConfig {
		return save(ctx, tickers, weights)
	}
	return nil
}

// selectTickers prefers --assets, then the defaults of --class, then config.
func selectTickers() ([]string, error) {
	if len(assets) > 0 {
		return assets, nil
	}
	if len(classes) > 0 {
		u, err := allocation.ResolveUniverse(classes, cfg.Universes)
		if err != nil {
			return nil, err
		}
		if len(u.Defaults) == 0 {
			return nil, fmt.Errorf("asset classes %v have no default tickers, use --assets", classes)
		}
		return u.Defaults, nil
	}
	if len(cfg.Portfolio.Tickers) > 0 {
		return cfg.Portfolio.Tickers, nil
	}
	return config.DefaultTickers, nil
}

// selectWeights normalizes --weights, falling back to configured weights and
// then to equal weight.
func selectWeights(tickers []string) (portfolio.Weights, error) {
	if equalWeight {
		return allocation.EqualWeight(tickers), nil
	}
	if len(rawWeights) > 0 {
		raw := make(map[string]float64, len(rawWeights))
		for ticker, value := range rawWeights {
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight for %s: %w", ticker, err)
			}
			raw[ticker] = v
		}
		return allocation.Manual(tickers, raw)
	}
	if len(cfg.Portfolio.Weights) > 0 && len(assets) == 0 && len(classes) == 0 {
		return portfolio.Weights(cfg.Portfolio.Weights), nil
	}
	return allocation.EqualWeight(tickers), nil
}

func save(ctx context.Context, tickers []string, weights portfolio.Weights) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var db *database.DB
	storeName := "file"
	if cfg.Database.Enabled {
		if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
			return err
		}
		var err error
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		storeName = "postgres"
	}
	repos := repository.NewRepositories(db, cfg.Report.SnapshotPath)

	assetClasses := classes
	if len(assetClasses) == 0 {
		assetClasses = cfg.Portfolio.AssetClasses
	}
	snapshot, err := service.NewSnapshotService(repos.Snapshot, storeName, log).Save(ctx, tickers, weights, assetClasses)
	if err != nil {
		return err
	}
	log.WithField("snapshot_id", snapshot.ID).Info("Allocation saved for the daily report")
	return nil
}
