package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	Local LocalConfig
	GCS   GCSConfig
}

// LocalConfig configures the on disk document bucket
type LocalConfig struct {
	// Dir is the root directory for documents, created on Open when missing
	Dir string
}

// GCSConfig configures object storage connectivity
type GCSConfig struct {
	Enabled bool
	Bucket  string

	// Prefix is prepended to every key, useful when several deployments
	// share one bucket
	Prefix string

	// Endpoint and Insecure point the client at a fake server in tests
	Endpoint string
	Insecure bool

	// Guard/boot knobs:
	ConnectRetries int           // default 5
	PingTimeout    time.Duration // default 5s
}
