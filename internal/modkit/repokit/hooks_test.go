package repokit

import (
	"context"
	"errors"
	"testing"
)

type failBucket struct{ Bucket }

func (failBucket) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestPutHooksRunAfterSuccessfulPut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := newMemBucket()

	var seenKey string
	var seenData []byte
	hooked := WithPutHooks(mem, func(_ context.Context, key string, data []byte) {
		seenKey = key
		seenData = data
	})

	if err := hooked.Put(ctx, "config/clinics.json", []byte(`{"clinics":[]}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if seenKey != "config/clinics.json" || string(seenData) != `{"clinics":[]}` {
		t.Fatalf("hook saw %q %q", seenKey, seenData)
	}
	if _, err := mem.Get(ctx, "config/clinics.json"); err != nil {
		t.Fatalf("authoritative write missing: %v", err)
	}
}

func TestPutHooksSkippedOnFailure(t *testing.T) {
	t.Parallel()
	called := false
	hooked := WithPutHooks(failBucket{}, func(context.Context, string, []byte) { called = true })

	if err := hooked.Put(context.Background(), "k", nil); err == nil {
		t.Fatal("expected Put error")
	}
	if called {
		t.Fatal("hook must not run when the authoritative write fails")
	}
}

func TestHookedBucketDelegatesReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := newMemBucket()
	_ = mem.Put(ctx, "a", []byte("1"))

	hooked := WithPutHooks(mem)
	if got, err := hooked.Get(ctx, "a"); err != nil || string(got) != "1" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if keys, err := hooked.List(ctx, ""); err != nil || len(keys) != 1 {
		t.Fatalf("List = %v, %v", keys, err)
	}
	if err := hooked.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
