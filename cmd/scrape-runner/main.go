// scrape-runner triggers a single pipeline run from the command line, for
// operators who want to run a scrape without going through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/runner"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrape"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/scrapers"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/session"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/storage"
	"github.com/cuongbtq/pharma-pricing-be/internal/config"
	"github.com/cuongbtq/pharma-pricing-be/shared/logger"
	"github.com/cuongbtq/pharma-pricing-be/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("SCRAPE_RUNNER_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	competitor := flag.String("competitor", "", "Competitor token to scrape")
	list := flag.Bool("list", false, "List registered competitors and exit")
	flag.Parse()

	registry := scrape.NewRegistry(
		scrapers.NewDocMorrisJob,
		scrapers.NewMedpexJob,
	)

	if *list {
		for _, token := range registry.Competitors() {
			fmt.Println(token)
		}
		return nil
	}

	if *competitor == "" {
		return fmt.Errorf("-competitor is required (use -list to see registered tokens)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateRunnerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbClient, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	ctx := context.Background()

	if err := storage.Migrate(ctx, dbClient); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	pipelineRunner := runner.NewRunner(&runner.Config{
		Logger:       appLogger.Logger,
		Registry:     registry,
		Observations: storage.NewObservationStore(dbClient),
		RunLogs:      storage.NewRunLogStore(dbClient),
		Session: &session.Config{
			UserAgent:         cfg.Scraper.UserAgent,
			ViewportWidth:     cfg.Scraper.ViewportWidth,
			ViewportHeight:    cfg.Scraper.ViewportHeight,
			NavigationTimeout: cfg.Scraper.NavigationTimeout,
			PaceInterval:      cfg.Scraper.PaceInterval,
			Headless:          cfg.Scraper.Headless,
		},
	})

	token := strings.ToUpper(*competitor)
	result, err := pipelineRunner.Run(ctx, token)
	if err != nil {
		return fmt.Errorf("run failed: %w (known competitors: %s)",
			err, strings.Join(registry.Competitors(), ", "))
	}

	appLogger.Info("Run finished",
		slog.String("competitor", result.Competitor),
		slog.Bool("success", result.Success),
		slog.Int("observations_found", result.ObservationsFound),
		slog.Duration("duration", result.Duration),
	)

	if !result.Success {
		// The run log already records the failure; exit nonzero for scripts.
		return fmt.Errorf("scrape failed: %s", result.Error)
	}

	return nil
}
