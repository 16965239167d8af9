package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footysync/ingestion/internal/repository"
)

func TestSelectTasks(t *testing.T) {
	all := selectTasks(nil)
	assert.Len(t, all, len(seedTasks), "empty selection means every catalog")

	subset := selectTasks([]string{"cities", "countries", "bogus"})
	require.Len(t, subset, 2, "unknown task names are dropped")
	assert.Equal(t, "countries", subset[0].Name, "dependency order is kept regardless of request order")
	assert.Equal(t, "cities", subset[1].Name)
}

func TestSeeder_Run(t *testing.T) {
	fetcher := &fakePageFetcher{pages: map[string][]map[string]any{
		"core/countries": {
			{"id": 462.0, "name": "Scotland"},
		},
		"core/cities": {
			{"id": 51663.0, "country_id": 462.0, "name": "Glasgow"},
			{"id": 51664.0, "country_id": 999.0, "name": "Nowhere"},
		},
	}}
	writer := newFakeWriter()
	runs := &fakeRuns{}
	lk := &fakeLock{}
	s := &Seeder{Fetcher: fetcher, Writer: writer, Runs: runs, Lock: lk, PerPage: 50}

	res, err := s.Run(context.Background(), []string{"countries", "cities"})
	require.NoError(t, err)
	assert.Equal(t, repository.RunSuccess, res.Status)
	assert.Equal(t, 3, res.Processed)

	assert.Equal(t, []string{"core/countries", "core/cities"}, fetcher.paths,
		"catalogs load in dependency order")
	require.Len(t, writer.tables["cities"], 2)
	assert.Equal(t, int64(462), writer.tables["cities"][0]["country_id"])
	assert.Nil(t, writer.tables["cities"][1]["country_id"],
		"a dangling country reference is nilled against the seeded set")

	assert.Equal(t, repository.RunSuccess, runs.last().Status)
	assert.Equal(t, 1, runs.last().Details["countries"])
	assert.Equal(t, 2, runs.last().Details["cities"])
	assert.Equal(t, []string{seedEntity}, lk.released)
}

func TestSeeder_LockContention(t *testing.T) {
	runs := &fakeRuns{}
	s := &Seeder{Fetcher: &fakePageFetcher{}, Writer: newFakeWriter(), Runs: runs, Lock: &fakeLock{held: true}}

	res, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Noop())

	require.Len(t, runs.records, 1, "contention still leaves an audit row")
	assert.Equal(t, repository.RunNoop, runs.last().Status)
	assert.Equal(t, "concurrent_lock", runs.last().Details["reason"])
}

func TestSeeder_TaskFailureAborts(t *testing.T) {
	fetcher := &fakePageFetcher{err: assert.AnError}
	runs := &fakeRuns{}
	s := &Seeder{Fetcher: fetcher, Writer: newFakeWriter(), Runs: runs, Lock: &fakeLock{}, PerPage: 50}

	res, err := s.Run(context.Background(), []string{"continents"})
	require.Error(t, err)
	assert.Equal(t, repository.RunError, res.Status)
	assert.Equal(t, "continents", runs.last().Details["failed_task"])
}
