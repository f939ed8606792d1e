package repokit

import "context"

// PutHook observes a successful Put. Used to mirror config and task
// documents to object storage without teaching repos about two buckets
type PutHook func(ctx context.Context, key string, data []byte)

// WithPutHooks wraps a Bucket and invokes hooks after each successful Put.
// Hooks run after the authoritative write; a hook that needs to report
// failure logs it itself
func WithPutHooks(inner Bucket, hooks ...PutHook) Bucket {
	return hookedBucket{inner: inner, hooks: hooks}
}

type hookedBucket struct {
	inner Bucket
	hooks []PutHook
}

func (h hookedBucket) Put(ctx context.Context, key string, data []byte) error {
	if err := h.inner.Put(ctx, key, data); err != nil {
		return err
	}
	for _, hk := range h.hooks {
		hk(ctx, key, data)
	}
	return nil
}

func (h hookedBucket) Get(ctx context.Context, key string) ([]byte, error) {
	return h.inner.Get(ctx, key)
}

func (h hookedBucket) List(ctx context.Context, prefix string) ([]string, error) {
	return h.inner.List(ctx, prefix)
}

func (h hookedBucket) Delete(ctx context.Context, key string) error {
	return h.inner.Delete(ctx, key)
}
