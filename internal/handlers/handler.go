package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/ingest"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/models"
	"github.com/soltixdb/udlc/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger *logging.Logger
	jobs   *services.JobService
}

// New creates a new handler instance
func New(logger *logging.Logger, jobs *services.JobService) *Handler {
	return &Handler{
		logger: logger,
		jobs:   jobs,
	}
}

func badRequest(format string, args ...interface{}) error {
	return services.NewServiceError(services.CodeInvalidRequest, fmt.Sprintf(format, args...))
}

// sendTable writes a result table as JSON, or as CSV when ?format=csv.
// ?detail=true adds the state, iteration and error columns to the CSV.
func sendTable(c *fiber.Ctx, id string, table detection.Table) error {
	switch format := c.Query("format", "json"); format {
	case "json":
		return c.JSON(models.ResultsResponse{
			JobID:   id,
			Count:   table.Len(),
			Flagged: len(table.Flagged()),
			Results: table,
		})
	case "csv":
		var buf bytes.Buffer
		opts := ingest.WriteOptions{Detail: c.QueryBool("detail", false)}
		if err := ingest.WriteTable(&buf, table, opts); err != nil {
			return err
		}
		name := "limits.csv"
		if id != "" {
			name = id + ".csv"
		}
		c.Attachment(name)
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return c.Send(buf.Bytes())
	default:
		return badRequest("unsupported format %q: use json or csv", format)
	}
}
