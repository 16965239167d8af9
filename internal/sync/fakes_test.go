package sync

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"footysync/ingestion/internal/client"
	"footysync/ingestion/internal/mapper"
	"footysync/ingestion/internal/repository"
)

// In-memory fakes for the orchestrator seams.

type fakeLock struct {
	held     bool
	err      error
	acquired []string
	released []string
}

func (f *fakeLock) Acquire(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.acquired = append(f.acquired, name)
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, name string) {
	f.released = append(f.released, name)
}

type fakeWriter struct {
	tables    map[string][]mapper.Row
	order     []string
	failTable string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{tables: map[string][]mapper.Row{}}
}

func (f *fakeWriter) Upsert(_ context.Context, spec repository.TableSpec, rows []mapper.Row) error {
	if spec.Name == f.failTable {
		return fmt.Errorf("upsert into %s failed: boom", spec.Name)
	}
	if len(rows) == 0 {
		return nil
	}
	f.tables[spec.Name] = append(f.tables[spec.Name], rows...)
	f.order = append(f.order, spec.Name)
	return nil
}

type fakeCursors struct {
	cursors map[string]repository.Cursor
	sets    int
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{cursors: map[string]repository.Cursor{}}
}

func (f *fakeCursors) Get(_ context.Context, entity string) (repository.Cursor, error) {
	return f.cursors[entity], nil
}

func (f *fakeCursors) Set(_ context.Context, entity string, cursor repository.Cursor) error {
	f.cursors[entity] = cursor
	f.sets++
	return nil
}

type fakeRuns struct {
	records []repository.RunRecord
}

func (f *fakeRuns) Insert(_ context.Context, rec repository.RunRecord) {
	f.records = append(f.records, rec)
}

func (f *fakeRuns) last() repository.RunRecord {
	return f.records[len(f.records)-1]
}

type fakeFetcher struct {
	deltaFixtures  []map[string]any
	deltaLastID    int64
	windowFixtures []map[string]any
	detailed       map[int64]map[string]any
	referees       []map[string]any

	multiCalls   [][]int64
	refereeCalls [][]int64
	fetchErr     error

	gotStartAfter int64
	gotLimit      int
	gotFrom       string
	gotTo         string
}

func (f *fakeFetcher) CollectFixturesAfter(_ context.Context, startAfter int64, limit int, _ *client.Trail) ([]map[string]any, int64, error) {
	if f.fetchErr != nil {
		return nil, 0, f.fetchErr
	}
	f.gotStartAfter = startAfter
	f.gotLimit = limit
	return f.deltaFixtures, f.deltaLastID, nil
}

func (f *fakeFetcher) CollectFixturesBetween(_ context.Context, from, to string, _ *client.Trail) ([]map[string]any, error) {
	f.gotFrom = from
	f.gotTo = to
	return f.windowFixtures, nil
}

func (f *fakeFetcher) FetchFixturesMulti(_ context.Context, ids []int64, _ string, _ *client.Trail) ([]map[string]any, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.multiCalls = append(f.multiCalls, ids)
	var out []map[string]any
	for _, id := range ids {
		if fixture, ok := f.detailed[id]; ok {
			out = append(out, fixture)
		}
	}
	return out, nil
}

func (f *fakeFetcher) FetchRefereesMulti(_ context.Context, ids []int64, _ *client.Trail) ([]map[string]any, error) {
	f.refereeCalls = append(f.refereeCalls, ids)
	return f.referees, nil
}

type fakeFixtureQuerier struct {
	recent         []int64
	missing        []int64
	missingTargets []string
	since          time.Time
}

func (f *fakeFixtureQuerier) RecentIDs(_ context.Context, since, _ time.Time, _ int) ([]int64, error) {
	f.since = since
	return f.recent, nil
}

func (f *fakeFixtureQuerier) MissingIDs(_ context.Context, targets []string, since time.Time, _ int) ([]int64, error) {
	f.missingTargets = targets
	f.since = since
	return f.missing, nil
}

type fakePageFetcher struct {
	pages map[string][]map[string]any
	paths []string
	err   error
}

func (f *fakePageFetcher) FetchPaged(_ context.Context, path string, _ url.Values, _ int, _ *client.Trail) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.paths = append(f.paths, path)
	return f.pages[path], nil
}
