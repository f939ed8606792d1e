package httpkit

import (
	"slotwatch/internal/platform/net/middleware"
)

// Protected groups routes under bearer auth. A nil port leaves the group
// open so deployments without a configured console token keep working
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p))
		fn(gr)
	})
}
