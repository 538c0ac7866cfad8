package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/models"
	"github.com/soltixdb/casetrend/internal/services"
	"github.com/soltixdb/casetrend/internal/session"
	"github.com/soltixdb/casetrend/internal/view"
)

// CreateSession handles session creation. Query arguments set the initial
// parameters.
// POST /v1/sessions?country=xxx&data=xxx&...
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	sess, snap, err := h.dashboard.CreateSession(queryArgs(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(sess, snap))
}

// GetSession handles get session requests
// GET /v1/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, snap, err := h.dashboard.Session(c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(sessionResponse(sess, snap))
}

// UpdateSession handles partial session updates
// PATCH /v1/sessions/:id
func (h *Handler) UpdateSession(c *fiber.Ctx) error {
	id := c.Params("id")

	var req models.SessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	update, err := req.ToUpdate()
	if err != nil {
		return h.writeError(c, invalidParameter(err))
	}

	sess, snap, err := h.dashboard.UpdateSession(id, update)
	if err != nil {
		return h.writeError(c, err)
	}

	logging.Ctx(logging.WithSessionID(c.UserContext(), id)).Debug("Session updated")
	return c.JSON(sessionResponse(sess, snap))
}

// DeleteSession handles session deletion
// DELETE /v1/sessions/:id
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	if err := h.dashboard.DeleteSession(c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func sessionResponse(sess *session.Session, snap view.Snapshot) models.SessionResponse {
	return models.NewSessionResponse(sess.ID, sess.CreatedAt, sess.ExpiresAt(), snap)
}

// invalidParameter converts a request-decoding error into a ServiceError
func invalidParameter(err error) error {
	if p, ok := err.(*view.InvalidParameterError); ok {
		return services.NewServiceErrorWithDetails(services.CodeInvalidParameter, p.Error(), map[string]interface{}{
			"param": p.Param,
			"value": p.Value,
		})
	}
	return services.NewServiceError(services.CodeInvalidParameter, err.Error())
}
