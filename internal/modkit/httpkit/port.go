// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"crypto/subtle"
	"net/http"

	perrs "slotwatch/internal/platform/errors"
)

// TokenFunc validates a raw bearer token and returns the console operator id
type TokenFunc func(token string) (operatorID string, err error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// NewStaticBearer builds a Port that accepts one shared console token.
// An empty configured token never matches
func NewStaticBearer(token string) *Port {
	return NewPortFunc(func(raw string) (string, error) {
		if token == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
			return "", perrs.Unauthorizedf("invalid bearer token")
		}
		return "console", nil
	})
}

// Parse extracts the operator id from the Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (string, error) {
	raw, err := Token(r)
	if err != nil {
		return "", err
	}

	if p.parse == nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}

	oid, err := p.parse(raw)
	if err != nil {
		return "", perrs.Unauthorizedf("invalid bearer token")
	}
	return oid, nil
}
