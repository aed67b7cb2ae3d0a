package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/udlc/internal/models"
	"github.com/soltixdb/udlc/internal/utils"
)

// Search handles POST /v1/search
// Runs the amplitude search for a single period and returns the row
func (h *Handler) Search(c *fiber.Ctx) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body: %v", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	res, err := h.jobs.Search(ctx, &req)
	if err != nil {
		return err
	}
	if res.Flagged() {
		h.logger.Debug("Search returned flagged row", "period", res.Period, "state", res.State, "error", res.Error)
	}
	return c.JSON(res)
}

// Sweep handles POST /v1/sweep
// Runs a small sweep inside the request; larger grids go through /v1/sweeps
func (h *Handler) Sweep(c *fiber.Ctx) error {
	var req models.SweepRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body: %v", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	table, err := h.jobs.RunSync(ctx, &req)
	if err != nil {
		return err
	}
	return sendTable(c, "", table)
}
