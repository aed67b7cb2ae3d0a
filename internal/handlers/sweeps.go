package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/udlc/internal/models"
)

// CreateSweep handles POST /v1/sweeps
// Queues a sweep job and returns it with status pending
func (h *Handler) CreateSweep(c *fiber.Ctx) error {
	var req models.SweepRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body: %v", err)
	}

	job, err := h.jobs.Submit(c.UserContext(), &req)
	if err != nil {
		return err
	}
	c.Location("/v1/sweeps/" + job.ID)
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// ListSweeps handles GET /v1/sweeps
func (h *Handler) ListSweeps(c *fiber.Ctx) error {
	jobs := h.jobs.List()
	return c.JSON(models.JobListResponse{
		Jobs:  jobs,
		Count: len(jobs),
	})
}

// GetSweep handles GET /v1/sweeps/:id
func (h *Handler) GetSweep(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

// SweepResults handles GET /v1/sweeps/:id/results
func (h *Handler) SweepResults(c *fiber.Ctx) error {
	id := c.Params("id")
	table, err := h.jobs.Results(id)
	if err != nil {
		return err
	}
	return sendTable(c, id, table)
}
