package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	perr "slotwatch/internal/platform/errors"
)

func TestOpen_EmptyDir_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}

func TestOpen_CreatesRoot(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data", "nested")
	b, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("Ping after Open: %v", err)
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// nested key creates parent directories
	if err := b.Put(ctx, "tasks/task_20260115_093000.json", []byte(`{"status":"pending"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := b.Get(ctx, "tasks/task_20260115_093000.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"status":"pending"}` {
		t.Fatalf("unexpected payload: %q", got)
	}

	// replace
	if err := b.Put(ctx, "tasks/task_20260115_093000.json", []byte(`{"status":"running"}`)); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, err = b.Get(ctx, "tasks/task_20260115_093000.json")
	if err != nil {
		t.Fatalf("Get after replace: %v", err)
	}
	if string(got) != `{"status":"running"}` {
		t.Fatalf("replace did not take: %q", got)
	}
}

func TestGet_Absent_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	b, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := b.Get(context.Background(), "nope.json"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_PrefixFilterAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	seed := []string{
		"results/slot_check_20260116_20260115_093000.json",
		"results/slot_check_20260115_20260114_093000.json",
		"tasks/task_20260115_093000.json",
	}
	for _, k := range seed {
		if err := b.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	got, err := b.List(ctx, "results/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{
		"results/slot_check_20260115_20260114_093000.json",
		"results/slot_check_20260116_20260115_093000.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}

	// a prefix with no objects yields an empty list, not an error
	empty, err := b.List(ctx, "missing/")
	if err != nil {
		t.Fatalf("List missing prefix: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %v", empty)
	}
}

func TestDelete_PresentAndAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := b.Put(ctx, "x.json", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Delete(ctx, "x.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx, "x.json"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// absent key is fine
	if err := b.Delete(ctx, "x.json"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestKeyEscape_Rejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, key := range []string{"", "..", "../evil.json", "a/../../evil.json", "/etc/passwd"} {
		if err := b.Put(ctx, key, []byte("x")); err == nil {
			t.Fatalf("Put(%q) should have been rejected", key)
		}
		if _, err := b.Get(ctx, key); err == nil || errors.Is(err, perr.ErrNotFound) {
			t.Fatalf("Get(%q) should have been rejected, got %v", key, err)
		}
	}
}

func TestPing_MissingRoot_Errors(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "gone")
	b, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected Ping error after root removal")
	}
}
