package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/generation"
	"github.com/visabuddy/ai-service/pkg/logger"
)

type ChecklistHandler struct {
	service *generation.Service
}

func NewChecklistHandler(service *generation.Service) *ChecklistHandler {
	return &ChecklistHandler{
		service: service,
	}
}

func (h *ChecklistHandler) GenerateChecklist(c *fiber.Ctx) error {
	var req struct {
		ApplicationID     string                             `json:"applicationId"`
		Profile           *checklist.ApplicantProfile        `json:"profile"`
		RiskAssessment    *checklist.RiskAssessment          `json:"riskAssessment"`
		UploadedDocuments []checklist.UploadedDocumentRecord `json:"uploadedDocuments"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ApplicationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "applicationId is required",
		})
	}

	if req.Profile == nil || req.Profile.CountryCode == "" || req.Profile.VisaCategory == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "profile.countryCode and profile.visaCategory are required",
		})
	}

	result, err := h.service.Generate(c.Context(), generation.GenerateRequest{
		ApplicationID: req.ApplicationID,
		Profile:       req.Profile,
		Risk:          req.RiskAssessment,
		Uploads:       req.UploadedDocuments,
	})

	if errors.Is(err, generation.ErrGenerationInFlight) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Checklist generation already in progress for this application",
		})
	}
	if err != nil {
		logger.Error("Failed to generate checklist",
			zap.String("application_id", req.ApplicationID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate checklist",
		})
	}

	return c.JSON(result)
}

func (h *ChecklistHandler) GetChecklist(c *fiber.Ctx) error {
	applicationID := c.Params("applicationID")
	if applicationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "applicationID is required",
		})
	}

	result, err := h.service.Get(c.Context(), applicationID)
	if errors.Is(err, generation.ErrChecklistNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Checklist not found",
		})
	}
	if err != nil {
		logger.Error("Failed to get checklist",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get checklist",
		})
	}

	return c.JSON(result)
}

func (h *ChecklistHandler) UpdateProgress(c *fiber.Ctx) error {
	applicationID := c.Params("applicationID")
	if applicationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "applicationID is required",
		})
	}

	var req struct {
		UploadedDocuments []checklist.UploadedDocumentRecord `json:"uploadedDocuments"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.UpdateProgress(c.Context(), applicationID, req.UploadedDocuments)
	if errors.Is(err, generation.ErrChecklistNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Checklist not found",
		})
	}
	if err != nil {
		logger.Error("Failed to update checklist progress",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update checklist progress",
		})
	}

	return c.JSON(result)
}
