package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/synapse-hq/synapse/pkg/providers"
	"github.com/synapse-hq/synapse/pkg/services"
)

// mapServiceError maps service- and provider-layer errors to HTTP responses.
func mapServiceError(err error) *echo.HTTPError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validErr.Error())
	}
	if errors.Is(err, services.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, services.ErrConflict) {
		return echo.NewHTTPError(http.StatusConflict, "resource conflict")
	}

	var authErr *providers.AuthError
	if errors.As(err, &authErr) {
		return echo.NewHTTPError(http.StatusUnauthorized, authErr.Error())
	}
	var rateErr *providers.RateLimitError
	if errors.As(err, &rateErr) {
		return echo.NewHTTPError(http.StatusTooManyRequests, rateErr.Error())
	}
	var provErr *providers.Error
	if errors.As(err, &provErr) {
		return echo.NewHTTPError(http.StatusBadGateway, provErr.Error())
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
