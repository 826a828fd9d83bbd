package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/kb"
	"github.com/visabuddy/ai-service/internal/metrics"
	"github.com/visabuddy/ai-service/pkg/logger"
)

type KBHandler struct {
	ingestor *kb.Ingestor
}

func NewKBHandler(ingestor *kb.Ingestor) *KBHandler {
	return &KBHandler{
		ingestor: ingestor,
	}
}

func (h *KBHandler) IngestDocument(c *fiber.Ctx) error {
	var req kb.Document

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Source == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "source and content are required",
		})
	}

	chunks, err := h.ingestor.Ingest(c.Context(), req)
	if err != nil {
		logger.Error("Failed to ingest KB document",
			zap.String("source", req.Source),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ingest document",
		})
	}

	metrics.KBDocumentsIngested.Inc()

	return c.JSON(fiber.Map{
		"source": req.Source,
		"chunks": chunks,
		"status": "ingested",
	})
}
