package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/synapse-hq/synapse/pkg/database"
)

// healthHandler handles GET /api/health. Checks only the app's own
// database; provider APIs are external and excluded so their outages never
// mark this service unhealthy.
func (s *Server) healthHandler(c *echo.Context) error {
	resp := &HealthResponse{
		Status:  "ok",
		App:     s.settings.AppName,
		Version: s.settings.AppVersion,
	}

	if s.dbClient != nil {
		reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
		resp.Database = dbHealth
		if err != nil {
			resp.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
	}

	return c.JSON(http.StatusOK, resp)
}
