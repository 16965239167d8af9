package sync

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/metrics"
	"footysync/ingestion/internal/repository"
)

const seedEntity = "reference_seed"

// PageFetcher is the client seam for full-catalog list endpoints.
type PageFetcher interface {
	FetchPaged(ctx context.Context, path string, params url.Values, perPage int, trail *client.Trail) ([]map[string]any, error)
}

// SeedTask loads one reference catalog. Tasks run in declaration order
// so foreign-key parents are always seeded before their dependents.
type SeedTask struct {
	Name  string
	Path  string
	Table repository.TableSpec
	Map   func(raw map[string]any, sc *mapper.SeedContext, runTS string) mapper.Row
}

var seedTasks = []SeedTask{
	{"continents", "core/continents", repository.ContinentsTable, mapper.Continent},
	{"core_types", "core/types", repository.CoreTypesTable, mapper.CoreType},
	{"countries", "core/countries", repository.CountriesTable, mapper.Country},
	{"regions", "core/regions", repository.RegionsTable, mapper.Region},
	{"cities", "core/cities", repository.CitiesTable, mapper.City},
	{"venues", "football/venues", repository.VenuesTable, mapper.Venue},
	{"leagues", "football/leagues", repository.LeaguesTable, mapper.League},
	{"seasons", "football/seasons", repository.SeasonsTable, mapper.Season},
	{"states", "football/states", repository.StatesTable, mapper.State},
	{"stages", "football/stages", repository.StagesTable, mapper.Stage},
	{"rounds", "football/rounds", repository.RoundsTable, mapper.Round},
	{"teams", "football/teams", repository.TeamsTable, mapper.Team},
	{"referees", "football/referees", repository.RefereesTable, mapper.Referee},
	{"players", "football/players", repository.PlayersTable, mapper.Player},
}

// SeedTaskNames lists every seed task in execution order.
func SeedTaskNames() []string {
	names := make([]string, len(seedTasks))
	for i, task := range seedTasks {
		names[i] = task.Name
	}
	return names
}

// Seeder loads the reference catalogs (geo data, types, leagues,
// seasons, teams, people) that fixture rows point into.
type Seeder struct {
	Fetcher PageFetcher
	Writer  RowWriter
	Runs    RunLogger
	Lock    Locker
	PerPage int
}

// Run seeds the named catalogs, or all of them when only is empty.
// Subset runs keep dependency order among the selected tasks.
func (s *Seeder) Run(ctx context.Context, only []string) (Result, error) {
	started := time.Now().UTC()
	runTS := started.Format(time.RFC3339)

	acquired, err := s.Lock.Acquire(ctx, seedEntity)
	if err != nil {
		log.Error().Err(err).Msg("Seed lock acquisition failed")
		metrics.RecordError(seedEntity, "lock")
		s.Runs.Insert(ctx, repository.RunRecord{
			Entity:    seedEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "lock_error", "error": err.Error()},
		})
		return Result{Status: repository.RunNoop, Message: "Lock unavailable"}, nil
	}
	if !acquired {
		metrics.RecordLockContention(seedEntity)
		s.Runs.Insert(ctx, repository.RunRecord{
			Entity:    seedEntity,
			Status:    repository.RunNoop,
			StartedAt: started,
			Details:   map[string]any{"reason": "concurrent_lock"},
		})
		return Result{Status: repository.RunNoop, Message: "Already running"}, nil
	}
	defer s.Lock.Release(ctx, seedEntity)

	tasks := selectTasks(only)
	if len(tasks) == 0 {
		return Result{Status: repository.RunNoop, Message: "No valid seed tasks"}, nil
	}

	trail := &client.Trail{}
	sc := mapper.NewSeedContext()
	details := map[string]any{}
	total := 0

	for _, task := range tasks {
		rows, err := s.runTask(ctx, task, sc, runTS, trail)
		if err != nil {
			metrics.RecordError(seedEntity, task.Name)
			s.Runs.Insert(ctx, repository.RunRecord{
				Entity:       seedEntity,
				Status:       repository.RunError,
				StartedAt:    started,
				Processed:    total,
				ErrorMessage: err.Error(),
				Details:      map[string]any{"failed_task": task.Name, "http": trail.HTTP},
			})
			return Result{Status: repository.RunError, Message: err.Error()}, err
		}
		details[task.Name] = rows
		total += rows
	}

	details["http"] = trail.HTTP
	s.Runs.Insert(ctx, repository.RunRecord{
		Entity:    seedEntity,
		Status:    repository.RunSuccess,
		StartedAt: started,
		Processed: total,
		Details:   details,
	})

	log.Info().
		Int("tasks", len(tasks)).
		Int("rows", total).
		Dur("elapsed", time.Since(started)).
		Msg("Reference seeding complete")

	return Result{
		Status:    repository.RunSuccess,
		Message:   fmt.Sprintf("Seeded %d rows across %d catalogs", total, len(tasks)),
		Processed: total,
		Details:   details,
	}, nil
}

func (s *Seeder) runTask(ctx context.Context, task SeedTask, sc *mapper.SeedContext, runTS string, trail *client.Trail) (int, error) {
	raw, err := s.Fetcher.FetchPaged(ctx, task.Path, nil, s.PerPage, trail)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s: %w", task.Name, err)
	}

	rows := make([]mapper.Row, 0, len(raw))
	for _, record := range raw {
		rows = append(rows, task.Map(record, sc, runTS))
	}
	rows = mapper.DedupeBy(rows, func(row mapper.Row) string {
		return fmt.Sprint(row["id"])
	})

	if err := s.Writer.Upsert(ctx, task.Table, rows); err != nil {
		return 0, err
	}
	sc.Register(task.Name, rows)

	log.Info().Str("catalog", task.Name).Int("rows", len(rows)).Msg("Catalog seeded")
	return len(rows), nil
}

func selectTasks(only []string) []SeedTask {
	if len(only) == 0 {
		return seedTasks
	}
	wanted := map[string]bool{}
	known := map[string]bool{}
	for _, task := range seedTasks {
		known[task.Name] = true
	}
	for _, name := range only {
		if !known[name] {
			log.Warn().Str("task", name).Msg("Unknown seed task, skipping")
			continue
		}
		wanted[name] = true
	}
	var tasks []SeedTask
	for _, task := range seedTasks {
		if wanted[task.Name] {
			tasks = append(tasks, task)
		}
	}
	return tasks
}
