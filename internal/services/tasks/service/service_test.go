package service_test

import (
	"context"
	"testing"
	"time"

	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/platform/store/local"
	ptime "slotwatch/internal/platform/time"
	"slotwatch/internal/services/tasks/domain"
	"slotwatch/internal/services/tasks/repo"
	"slotwatch/internal/services/tasks/service"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	docs, err := local.Open(local.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	return &store.Store{Docs: docs}
}

func newManager(t *testing.T, s *store.Store, clock ptime.Clock) *service.Manager {
	t.Helper()
	return service.New(repo.NewBuckets(s), s.Log, service.Config{Clock: clock})
}

func TestLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newManager(t, testStore(t), ptime.System{})

	task, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != domain.StatusPending {
		t.Fatalf("status = %s", task.Status)
	}

	if err := m.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Progress(ctx, task.ID, 3, 10, "clinic-a"); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := m.Complete(ctx, task.ID, "results/slot_check_x.json"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := m.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.CompletedAt == nil {
		t.Fatalf("task = %+v", got)
	}
	if got.Progress.Current != 3 || got.Progress.Clinic != "clinic-a" {
		t.Fatalf("progress = %+v", got.Progress)
	}
	if got.Result != "results/slot_check_x.json" {
		t.Fatalf("result = %q", got.Result)
	}
}

func TestSingleActiveRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newManager(t, testStore(t), ptime.System{})

	first, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Start(ctx, first.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := m.Create(ctx); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("second create = %v, want conflict", err)
	}
	if active, ok := m.Active(); !ok || active.ID != first.ID {
		t.Fatalf("active = %+v, %v", active, ok)
	}

	// finishing the run unblocks creation
	if err := m.Fail(ctx, first.ID, "timeout"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if _, err := m.Create(ctx); err != nil {
		t.Fatalf("create after finish: %v", err)
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newManager(t, testStore(t), ptime.System{})

	task, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Complete(ctx, task.ID, "ref"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if err := m.Start(ctx, task.ID); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("start on completed = %v, want conflict", err)
	}
	if err := m.Fail(ctx, task.ID, "late"); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("fail on completed = %v, want conflict", err)
	}
}

func TestRestartRecovery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	m1 := newManager(t, s, ptime.System{})
	task, err := m1.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m1.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m1.Complete(ctx, task.ID, "ref"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// a fresh instance over the same store reads the spilled record
	m2 := newManager(t, s, ptime.System{})
	got, err := m2.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}
	if got.Status != domain.StatusCompleted || got.Result != "ref" {
		t.Fatalf("recovered = %+v", got)
	}
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()
	m := newManager(t, testStore(t), ptime.System{})
	if _, err := m.Get(context.Background(), "nope"); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

// faultBucket passes through to a real bucket until failPut trips
type faultBucket struct {
	store.Bucket
	failPut bool
}

func (f *faultBucket) Put(ctx context.Context, key string, data []byte) error {
	if f.failPut {
		return perr.Storagef("disk full")
	}
	return f.Bucket.Put(ctx, key, data)
}

func TestDiskFailureKeepsTransitionInMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := testStore(t)
	fb := &faultBucket{Bucket: s.Docs}
	m := newManager(t, &store.Store{Docs: fb, Log: s.Log}, ptime.System{})

	task, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// the spill fails but the terminal transition must still land in memory
	fb.failPut = true
	if err := m.Fail(ctx, task.ID, "timeout"); !perr.IsCode(err, perr.ErrorCodeStorage) {
		t.Fatalf("fail = %v, want storage error", err)
	}
	got, err := m.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusFailed || got.Error != "timeout" {
		t.Fatalf("task = %+v", got)
	}

	// the run is finished, so a new one can start
	fb.failPut = false
	if _, err := m.Create(ctx); err != nil {
		t.Fatalf("create after failed spill: %v", err)
	}
}

func TestCreateSpillFailureDoesNotBlockLaterRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := testStore(t)
	fb := &faultBucket{Bucket: s.Docs, failPut: true}
	m := newManager(t, &store.Store{Docs: fb, Log: s.Log}, ptime.System{})

	if _, err := m.Create(ctx); !perr.IsCode(err, perr.ErrorCodeStorage) {
		t.Fatalf("create = %v, want storage error", err)
	}
	if _, ok := m.Active(); ok {
		t.Fatal("stillborn task must not stay active")
	}

	fb.failPut = false
	if _, err := m.Create(ctx); err != nil {
		t.Fatalf("create after recovery: %v", err)
	}
}

func TestCleanupRemovesOnlyOldFinished(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	old := time.Date(2026, 1, 10, 9, 0, 0, 0, ptime.JST)
	mOld := newManager(t, s, ptime.Fixed(old))
	task, err := mOld.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mOld.Start(ctx, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := mOld.Complete(ctx, task.ID, "ref"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// two days later a fresh manager creates a new pending task
	now := old.Add(48 * time.Hour)
	m := newManager(t, s, ptime.Fixed(now))
	fresh, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	removed, err := m.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, err := m.Get(ctx, task.ID); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("old task survived: %v", err)
	}
	if _, err := m.Get(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh task collected: %v", err)
	}
}
