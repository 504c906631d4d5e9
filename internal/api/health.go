package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenValidator is the part of the collector the readiness probe needs.
type TokenValidator interface {
	ValidateApiKey() error
}

// healthz reports liveness: the process is up and serving.
func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports readiness: the Apify token is accepted by the remote API.
// The validation endpoint consumes no actor runs.
func readyz(validator TokenValidator) func(c echo.Context) error {
	return func(c echo.Context) error {
		if err := validator.ValidateApiKey(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
}
