package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	injectionPattern     = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
	applicationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

type Config struct {
	MaxDocumentSize int
	Logger          *zap.Logger
}

// Middleware rejects malformed or abusive request bodies before they reach
// the handlers. Field-level validation stays in the handlers; this layer
// only enforces shape, size and identifier hygiene.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxDocumentSize == 0 {
		cfg.MaxDocumentSize = 10 * 1024 * 1024
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut {
			contentType := c.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		path := c.Path()

		if appID := c.Params("applicationID"); appID != "" {
			if !applicationIDPattern.MatchString(appID) {
				cfg.Logger.Warn("Rejected malformed application ID",
					zap.String("ip", c.IP()),
					zap.String("path", path),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid application ID",
				})
			}
		}

		if strings.Contains(path, "/api/v1/checklist/generate") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			appID, ok := req["applicationId"].(string)
			if !ok || appID == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "applicationId is required and must be a string",
				})
			}

			if !applicationIDPattern.MatchString(appID) {
				cfg.Logger.Warn("Rejected malformed application ID",
					zap.String("ip", c.IP()),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid application ID",
				})
			}
		}

		if strings.Contains(path, "/api/v1/kb/documents") {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			source, ok := req["source"].(string)
			if !ok || source == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "source is required and must be a string",
				})
			}

			if containsInjection(source) {
				cfg.Logger.Warn("Rejected suspicious KB source",
					zap.String("ip", c.IP()),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid source content",
				})
			}

			content, ok := req["content"].(string)
			if ok && len(content) > cfg.MaxDocumentSize {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Document content exceeds maximum size",
				})
			}
		}

		return c.Next()
	}
}

func containsInjection(input string) bool {
	return injectionPattern.MatchString(input)
}
