package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listProvidersHandler handles GET /api/v1/providers.
func (s *Server) listProvidersHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &ProvidersResponse{Providers: s.registry.Names()})
}

// validateKeyHandler handles POST /api/v1/providers/validate_key.
// Performs the syntactic key check only — no provider network call.
func (s *Server) validateKeyHandler(c *echo.Context) error {
	var req ValidateKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Provider == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider is required")
	}

	provider, err := s.registry.Get(req.Provider, req.APIKey, "")
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &ValidateKeyResponse{
		Provider: req.Provider,
		Valid:    provider.ValidateAPIKeyFormat(req.APIKey),
	})
}
