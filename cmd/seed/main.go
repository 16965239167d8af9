// Command seed loads the Sportmonks reference catalogs (continents,
// countries, leagues, seasons, teams, players, ...) once and exits.
// Run it before the worker so fixture foreign keys resolve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/config"
	"footysync/ingestion/internal/lock"
	"footysync/ingestion/internal/repository"
	"footysync/ingestion/internal/sync"
)

func main() {
	only := flag.String("only", "", fmt.Sprintf(
		"comma-separated subset of catalogs to seed (default all; valid: %s)",
		strings.Join(sync.SeedTaskNames(), ","),
	))
	flag.Parse()

	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	cfg := config.MustLoad()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, aborting seed...")
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

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	seeder := &sync.Seeder{
		Fetcher: smClient,
		Writer:  db.Writer,
		Runs:    db.Runs,
		Lock:    lock.New(redisClient, cfg.LockLease),
		PerPage: cfg.SportmonksPerPage,
	}

	var tasks []string
	if *only != "" {
		for _, name := range strings.Split(*only, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				tasks = append(tasks, trimmed)
			}
		}
	}

	res, err := seeder.Run(ctx, tasks)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
	if res.Noop() {
		log.Warn().Str("message", res.Message).Msg("Seeding skipped")
		os.Exit(1)
	}

	log.Info().
		Int("rows", res.Processed).
		Str("message", res.Message).
		Msg("Seeding finished")
}
