package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/dataset"
	"github.com/soltixdb/casetrend/internal/models"
)

// TriggerRefresh reloads the case tables, swaps them in and broadcasts the
// refresh to other instances
// POST /admin/refresh
func (h *Handler) TriggerRefresh(c *fiber.Ctx) error {
	startTime := time.Now()

	snap, err := h.refresh.Refresh(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}

	h.logger.Info("Manual refresh completed", "version", snap.Version)

	return c.JSON(models.RefreshResponse{
		Version:   snap.Version,
		LoadedAt:  snap.LoadedAt.Format(time.RFC3339),
		Countries: len(snap.Table.Countries()),
		Dates:     snap.Table.Len(),
		LatencyMs: time.Since(startTime).Milliseconds(),
	})
}

// TableInfo describes the loaded table
// GET /admin/table
func (h *Handler) TableInfo(c *fiber.Ctx) error {
	info, err := h.dashboard.TableInfo()
	if err != nil {
		return h.writeError(c, err)
	}

	resp := models.TableInfoResponse{
		Version:   info.Version,
		LoadedAt:  info.LoadedAt.Format(time.RFC3339),
		Countries: info.Countries,
		Dates:     info.Dates,
		Sessions:  info.Sessions,
	}
	if info.Dates > 0 {
		resp.FirstDate = info.FirstDate.Format(dataset.DateLayout)
		resp.LastDate = info.LastDate.Format(dataset.DateLayout)
	}
	return c.JSON(resp)
}
