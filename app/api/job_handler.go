package api

import (
	"database/sql"
	"errors"

	"pdfcrop/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type JobHandler struct {
	jobStore store.JobStorer
}

func NewJobHandler(jobStore store.JobStorer) *JobHandler {
	return &JobHandler{
		jobStore: jobStore,
	}
}

func (h *JobHandler) HandleGetJob(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	job, err := h.jobStore.GetJobByID(c.UserContext(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound(id, "job")
	}
	if err != nil {
		return err
	}

	return c.JSON(job)
}
