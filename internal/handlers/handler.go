package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/models"
	"github.com/soltixdb/casetrend/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	dashboard *services.DashboardService
	refresh   *services.RefreshService
}

// New creates a new handler instance
func New(logger *logging.Logger, dashboard *services.DashboardService, refresh *services.RefreshService) *Handler {
	return &Handler{
		logger:    logger,
		dashboard: dashboard,
		refresh:   refresh,
	}
}

// queryArgs collects every query argument, keeping repeated keys in order
func queryArgs(c *fiber.Ctx) map[string][]string {
	args := make(map[string][]string)
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		args[k] = append(args[k], string(value))
	})
	return args
}

// statusForCode maps service error codes to HTTP status codes
func statusForCode(code string) int {
	switch code {
	case services.CodeInvalidParameter:
		return fiber.StatusBadRequest
	case services.CodeSessionNotFound, services.CodeCountryNotFound:
		return fiber.StatusNotFound
	case services.CodeTableNotLoaded:
		return fiber.StatusServiceUnavailable
	case services.CodeDataIntegrity, services.CodeRefreshFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError answers err as a models.ErrorResponse
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status := statusForCode(svcErr.Code)
		if status >= fiber.StatusInternalServerError {
			h.logger.Error("Request failed", "path", c.Path(), "code", svcErr.Code, "error", svcErr.Message)
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	h.logger.Error("Request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: err.Error(),
		},
	})
}
