package httpkit

import (
	"net/http"
	"strings"

	"slotwatch/internal/modkit/scope"
	perrs "slotwatch/internal/platform/errors"
	pnet "slotwatch/internal/platform/net"
)

// Operator returns the authenticated console operator id from the request
// context. Auth publishes it to both the scope and the platform context;
// the scope copy wins
func Operator(r *http.Request) (string, error) {
	if oid, ok := scope.Get(r.Context(), "operator"); ok && oid != "" {
		return oid, nil
	}
	if oid := pnet.OperatorID(r.Context()); oid != "" {
		return oid, nil
	}
	return "", perrs.Unauthorizedf("missing bearer token")
}

// Token returns the raw bearer token from the Authorization header
func Token(r *http.Request) (string, error) {
	authz := r.Header.Get("Authorization")
	if strings.TrimSpace(authz) == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	// case-insensitive Bearer prefix (don't trim the whole header first)
	const prefix = "bearer "
	if len(authz) < len(prefix) || strings.ToLower(authz[:len(prefix)]) != prefix {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	raw := strings.TrimSpace(authz[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}
