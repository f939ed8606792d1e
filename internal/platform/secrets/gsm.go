package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	perr "slotwatch/internal/platform/errors"
)

// GSM reads and writes the credentials secret in Google Secret Manager.
// Load always resolves the latest version; Save adds a new one
type GSM struct {
	client  *secretmanager.Client
	project string
	name    string
}

func openGSM(ctx context.Context, cfg Config) (*GSM, error) {
	if cfg.Project == "" {
		return nil, perr.InvalidArgf("secrets: gsm mode requires a project id")
	}
	if cfg.Name == "" {
		return nil, perr.InvalidArgf("secrets: gsm mode requires a secret name")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "secrets: secret manager client")
	}
	return &GSM{client: client, project: cfg.Project, name: cfg.Name}, nil
}

// Load returns the latest secret version payload
func (g *GSM) Load(ctx context.Context) ([]byte, error) {
	resp, err := g.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", g.project, g.name),
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "secrets: access %s", g.name)
	}
	return resp.GetPayload().GetData(), nil
}

// Save adds a new secret version holding data
func (g *GSM) Save(ctx context.Context, data []byte) error {
	_, err := g.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  fmt.Sprintf("projects/%s/secrets/%s", g.project, g.name),
		Payload: &secretmanagerpb.SecretPayload{Data: data},
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "secrets: add version to %s", g.name)
	}
	return nil
}

// Close releases the underlying client
func (g *GSM) Close() error { return g.client.Close() }
