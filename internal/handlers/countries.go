package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/casetrend/internal/models"
)

// ListCountries handles list countries requests
// GET /v1/countries
func (h *Handler) ListCountries(c *fiber.Ctx) error {
	countries, version, err := h.dashboard.Countries()
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(models.CountryListResponse{
		Countries:    countries,
		Count:        len(countries),
		TableVersion: version,
	})
}

// ResolveCountry handles country name resolution
// GET /v1/countries/resolve?name=xxx
func (h *Handler) ResolveCountry(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "name is required",
			},
		})
	}

	country, err := h.dashboard.Resolve(name)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(models.ResolveResponse{Query: name, Country: country})
}
