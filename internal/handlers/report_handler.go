package handlers

import (
	"errors"
	"strconv"

	"github.com/civicfix/civicfix-backend/internal/dto"
	"github.com/civicfix/civicfix-backend/internal/middleware"
	"github.com/civicfix/civicfix-backend/internal/moderation"
	"github.com/civicfix/civicfix-backend/internal/services"
	"github.com/civicfix/civicfix-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	submissions *services.SubmissionService
	queries     *services.ReportQueryService
}

func NewReportHandler(submissions *services.SubmissionService, queries *services.ReportQueryService) *ReportHandler {
	return &ReportHandler{submissions: submissions, queries: queries}
}

// Submit accepts a multipart form: description, optional latitude and
// longitude, optional photo. Every pipeline outcome maps to a distinct
// status and user-facing message; raw fault strings never reach the
// client.
func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	input := services.SubmissionInput{
		Description: c.FormValue("description"),
		SubmitterID: middleware.Submitter(c),
	}

	var err error
	if input.Latitude, err = optionalFloat(c.FormValue("latitude")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Latitude must be a number.",
		})
	}
	if input.Longitude, err = optionalFloat(c.FormValue("longitude")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Longitude must be a number.",
		})
	}

	if fileHeader, err := c.FormFile("photo"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Uploaded photo could not be read.",
			})
		}
		defer file.Close()
		input.Upload = &storage.Upload{
			Filename: fileHeader.Filename,
			Size:     fileHeader.Size,
			Content:  file,
		}
	}

	reportID, err := h.submissions.Submit(c.UserContext(), input)
	if err != nil {
		return submissionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitReportResponse{ID: reportID})
}

func submissionError(c *fiber.Ctx, err error) error {
	var inputErr *services.InputInvalidError
	if errors.As(err, &inputErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: inputErr.Message,
		})
	}

	var artifactErr *services.ArtifactInvalidError
	if errors.As(err, &artifactErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: artifactErr.Message, Reason: artifactErr.Reason,
		})
	}

	var rejected *services.ContentRejectedError
	if errors.As(err, &rejected) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Error:    true,
			Message:  "Your description contains unsafe content and cannot be submitted.",
			Category: rejected.Category,
		})
	}

	if errors.Is(err, services.ErrModerationUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Moderation service is unavailable. Please try again in a moment.",
		})
	}

	if errors.Is(err, moderation.ErrMissingAPIKey) {
		// Configuration problem; nothing the submitter can fix.
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Report submission is temporarily unavailable.",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Something went wrong saving your report. Please try again.",
	})
}

// Latest serves the public report list: approved reports only, optional
// keyword filter, newest first unless sort=oldest.
func (h *ReportHandler) Latest(c *fiber.Ctx) error {
	return h.latest(c, false)
}

// AdminLatest serves the same list with all statuses visible.
func (h *ReportHandler) AdminLatest(c *fiber.Ctx) error {
	return h.latest(c, true)
}

func (h *ReportHandler) latest(c *fiber.Ctx, isAdmin bool) error {
	reports, err := h.queries.Latest(c.UserContext(), isAdmin, c.Query("query"), c.Query("sort"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load reports",
		})
	}

	items := make([]dto.ReportListItem, 0, len(reports))
	for _, r := range reports {
		items = append(items, dto.ReportListItem{
			ID:          r.ID,
			Description: r.Description,
			Status:      r.Status,
			ImageURL:    r.ImageURL,
			CreatedAt:   r.CreatedAt,
		})
	}
	return c.JSON(items)
}

func (h *ReportHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	report, err := h.queries.ByID(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Report not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load report",
		})
	}
	return c.JSON(report)
}

func optionalFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
