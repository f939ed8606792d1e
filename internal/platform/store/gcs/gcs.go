// Package gcs provides the object storage document bucket
package gcs

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	google_http "google.golang.org/api/transport/http"

	perr "slotwatch/internal/platform/errors"
)

// Config configures bucket access
type Config struct {
	Bucket string
	Prefix string

	// Endpoint and Insecure point the client at a fake server in tests
	Endpoint string
	Insecure bool
}

// GCS is a document bucket backed by object storage
type GCS struct {
	cfg    Config
	client *storage.Client
	bucket *storage.BucketHandle
}

// Open builds the storage client.
// Reachability is the caller's concern; use Ping for boot guardrails
func Open(ctx context.Context, cfg Config) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: empty bucket name")
	}

	// start with default transport
	customTransport := http.DefaultTransport.(*http.Transport).Clone()

	// add google auth
	transportOptions := []option.ClientOption{
		option.WithScopes(storage.ScopeReadWrite),
	}
	if cfg.Insecure {
		transportOptions = append(transportOptions, option.WithoutAuthentication())
		customTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	transport, err := google_http.NewTransport(ctx, customTransport, transportOptions...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating google http transport: %w", err)
	}

	clientOptions := []option.ClientOption{
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithScopes(storage.ScopeReadWrite),
	}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, option.WithEndpoint(cfg.Endpoint))
		clientOptions = append(clientOptions, storage.WithJSONReads())
	}
	client, err := storage.NewClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating storage client: %w", err)
	}

	return &GCS{
		cfg:    cfg,
		client: client,
		bucket: client.Bucket(cfg.Bucket),
	}, nil
}

// Put stores data under key, replacing any previous object
func (g *GCS) Put(ctx context.Context, key string, data []byte) error {
	w := g.bucket.Object(g.object(key)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: close %q: %w", key, err)
	}
	return nil
}

// Get returns the object bytes or perr.ErrNotFound when absent
func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(g.object(key)).NewReader(ctx)
	if err != nil {
		return nil, readError(key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: read %q: %w", key, err)
	}
	return data, nil
}

// List returns all keys under prefix, sorted ascending.
// Keys are returned relative to the configured Prefix
func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	full := g.object(prefix)
	// path.Join strips the trailing slash callers use to mean "directory"
	if strings.HasSuffix(prefix, "/") && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	iter := g.bucket.Objects(ctx, &storage.Query{Prefix: full})

	var keys []string
	for {
		attrs, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: list %q: %w", prefix, err)
		}
		key := attrs.Name
		if g.cfg.Prefix != "" {
			key = strings.TrimPrefix(key, g.cfg.Prefix+"/")
		}
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object; deleting an absent key is not an error
func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(g.object(key)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: delete %q: %w", key, err)
	}
	return nil
}

// Ping confirms the bucket is reachable by fetching its attrs
func (g *GCS) Ping(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	return err
}

// Close releases the underlying client
func (g *GCS) Close() error {
	return g.client.Close()
}

// object prepends the configured prefix to a key
func (g *GCS) object(key string) string {
	if g.cfg.Prefix == "" {
		return key
	}
	return path.Join(g.cfg.Prefix, key)
}

func readError(key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return perr.ErrNotFound
	}
	return fmt.Errorf("gcs: read %q: %w", key, err)
}
