package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/quote-engine/internal/config"
	"github.com/garyjia/quote-engine/internal/repository"
	"github.com/garyjia/quote-engine/internal/validation"
	"github.com/garyjia/quote-engine/pkg/database"
	"github.com/garyjia/quote-engine/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	fixturesDir := flag.String("fixtures", "", "override fixtures directory")
	mode := flag.String("mode", "", "override validation mode (summary|detailed)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *fixturesDir != "" {
		cfg.Validation.FixturesDir = *fixturesDir
	}
	if *mode != "" {
		cfg.Validation.Mode = *mode
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	paths, err := filepath.Glob(filepath.Join(cfg.Validation.FixturesDir, "*.xlsx"))
	if err != nil {
		logger.Fatal("Failed to list fixtures", zap.Error(err))
	}
	sort.Strings(paths)

	logger.Info("Starting ground-truth validation",
		zap.String("fixtures_dir", cfg.Validation.FixturesDir),
		zap.String("mode", cfg.Validation.Mode),
		zap.Int("fixtures", len(paths)))

	tol := validation.Tolerance{
		Abs:        decimal.RequireFromString(cfg.Validation.AbsTolerance),
		RelPercent: decimal.RequireFromString(cfg.Validation.RelTolerancePercent),
	}
	parser := validation.NewParser(logger)
	validator := validation.NewValidator(cfg.SystemConfig(), tol, logger)
	runner := validation.NewRunner(parser, validator, cfg.Validation.Workers, logger)

	validationMode := validation.Mode(cfg.Validation.Mode)
	started := time.Now()
	outcomes := runner.Run(paths, validationMode)
	elapsed := time.Since(started)

	var runRepo *repository.RunRepository
	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0755); err != nil {
			logger.Fatal("Failed to create history directory", zap.Error(err))
		}
		db, err := database.New(database.Config{
			Path:            cfg.History.Path,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize history database", zap.Error(err))
		}
		defer db.Close()

		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(); err != nil {
			logger.Fatal("Failed to run history migrations", zap.Error(err))
		}
		runRepo = repository.NewRunRepository(db.DB, logger)
	}

	var results []*validation.ValidationResult
	structuralFailures := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			structuralFailures++
			logger.Error("Fixture could not be validated",
				zap.String("path", outcome.Path),
				zap.Error(outcome.Err))
			continue
		}
		results = append(results, outcome.Result)
		if runRepo != nil {
			run := &repository.ValidationRun{
				Filename:      outcome.Result.Filename,
				Mode:          string(validationMode),
				Passed:        outcome.Result.Passed,
				CheckedFields: outcome.Result.CheckedFields,
				PassedFields:  outcome.Result.PassedFields,
				MaxDeviation:  outcome.Result.MaxDeviation.String(),
				DurationMs:    outcome.Duration.Milliseconds(),
			}
			if err := runRepo.Create(run); err != nil {
				logger.Warn("Failed to record validation run", zap.Error(err))
			}
		}
	}

	report := validation.NewReportGenerator().Generate(results, validationMode)
	fmt.Println(report)

	logger.Info("Validation finished",
		zap.Int("fixtures", len(paths)),
		zap.Int("structural_failures", structuralFailures),
		zap.Duration("elapsed", elapsed))

	for _, r := range results {
		if !r.Passed {
			os.Exit(1)
		}
	}
	if structuralFailures > 0 {
		os.Exit(1)
	}
}
