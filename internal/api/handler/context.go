package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

// CallerResolver turns session claims into a Caller.
type CallerResolver interface {
	ResolveCaller(s ports.Session) (domain.Caller, error)
}

// ctxCaller extracts the claims injected by the Auth middleware. Missing
// claims mean the middleware did not run and are rejected with 401 before
// any service call.
func ctxCaller(c echo.Context, r CallerResolver) (domain.Caller, error) {
	username, _ := c.Get("username").(string)
	role, _ := c.Get("role").(string)
	if username == "" || role == "" {
		return domain.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return r.ResolveCaller(ports.Session{Username: username, Role: role})
}
