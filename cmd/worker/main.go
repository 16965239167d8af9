package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/config"
	"footysync/ingestion/internal/lock"
	"footysync/ingestion/internal/metrics"
	"footysync/ingestion/internal/repository"
	"footysync/ingestion/internal/scheduler"
	"footysync/ingestion/internal/sync"
)

func main() {
	setupLogger()

	log.Info().Msg("Starting footysync ingestion worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	smClient := client.NewClient(client.Options{
		BaseURL:       cfg.SportmonksBaseURL,
		APIToken:      cfg.SportmonksAPIKey,
		Timeout:       cfg.SportmonksTimeout,
		PerPage:       cfg.SportmonksPerPage,
		MaxRetries:    cfg.SportmonksMaxRetries,
		RetryBase:     cfg.SportmonksRetryBase,
		RateThreshold: cfg.SportmonksRateThreshold,
		RateWait:      cfg.SportmonksRateWait,
	})
	log.Info().Msg("Sportmonks client initialized")

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:      cfg.DatabaseHost,
		Port:      strconv.Itoa(cfg.DatabasePort),
		User:      cfg.DatabaseUser,
		Password:  cfg.DatabasePassword,
		Database:  cfg.DatabaseName,
		SSLMode:   cfg.DatabaseSSLMode,
		ChunkSize: cfg.UpsertChunkSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	log.Info().Msg("Redis connected")

	locks := lock.New(redisClient, cfg.LockLease)

	delta := &sync.Delta{
		Fetcher: smClient,
		Writer:  db.Writer,
		Cursors: db.Cursors,
		Runs:    db.Runs,
		Lock:    locks,
		Opts: sync.DeltaOptions{
			Limit:       cfg.DeltaLimit,
			BatchSize:   cfg.DeltaBatchSize,
			DaysBack:    cfg.DeltaDaysBack,
			DaysForward: cfg.DeltaDaysForward,
		},
	}

	enricher := &sync.Enricher{
		Fetcher:  smClient,
		Writer:   db.Writer,
		Fixtures: db.Fixtures,
		Runs:     db.Runs,
		Lock:     locks,
		Opts: sync.EnrichOptions{
			Limit:       cfg.EnrichmentLimit,
			BatchSize:   cfg.EnrichmentBatchSize,
			DaysBack:    cfg.EnrichmentDaysBack,
			DaysForward: cfg.EnrichmentDaysForward,
		},
	}

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort), db)
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg, delta, enricher)
	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	srv := newTriggerServer(delta, enricher, db)
	go srv.ListenAndServe(ctx, strconv.Itoa(cfg.IngestionPort))

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}
