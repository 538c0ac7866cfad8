package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/models"
)

// Dataset handles stateless dataset requests
// GET /v1/dataset?country=xxx&country=yyy&data=xxx&per_capita=xxx&window_size=xxx&average=xxx&scale=xxx&plot_raw=xxx&plot_average=xxx&plot_trend=xxx
func (h *Handler) Dataset(c *fiber.Ctx) error {
	result, err := h.dashboard.Dataset(queryArgs(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(models.NewDatasetResponse(result.Params, result.Dataset, result.TableVersion))
}

// Ranking handles ranking requests
// GET /v1/ranking?data=xxx&per_capita=xxx&window_size=xxx
func (h *Handler) Ranking(c *fiber.Ctx) error {
	result, err := h.dashboard.Ranking(queryArgs(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(models.RankingResponse{Result: result})
}
