package handler

import (
	"cardsmith/internal/domain"
	"cardsmith/internal/dto"
	"cardsmith/internal/export"
	"cardsmith/internal/logger"
	"cardsmith/internal/service"
	"cardsmith/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FlashcardHandler handles the flashcard API.
type FlashcardHandler struct {
	service   service.FlashcardService
	validator *validation.Validator
	cache     domain.Cache
	strategy  string
}

// NewFlashcardHandler creates a new FlashcardHandler instance. cache may be
// nil; it is only used for health reporting.
func NewFlashcardHandler(service service.FlashcardService, validator *validation.Validator, cache domain.Cache, strategy string) *FlashcardHandler {
	return &FlashcardHandler{
		service:   service,
		validator: validator,
		cache:     cache,
		strategy:  strategy,
	}
}

// Generate godoc
// @Summary Generate flashcards from text
// @Description Turns the submitted text into question/answer flashcards using the configured strategy
// @Tags flashcards
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "Source text"
// @Success 200 {object} dto.FlashcardsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/generate [post]
func (h *FlashcardHandler) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Get().Debug("Invalid generate request body", zap.Error(err))
		return domain.NewInvalidInputError("Invalid request body")
	}

	cards, err := h.service.GenerateFromText(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(dto.FlashcardsResponse{Flashcards: nonNil(cards)})
}

// Upload godoc
// @Summary Generate flashcards from a file
// @Description Extracts text from an uploaded PDF or TXT file and turns it into flashcards
// @Tags flashcards
// @Accept mpfd
// @Produce json
// @Param file formData file true "PDF or TXT document"
// @Success 200 {object} dto.FlashcardsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/upload [post]
func (h *FlashcardHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader.Filename == "" {
		return domain.NewInvalidInputError("No file uploaded")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.NewInternalError("Failed to process file", err)
	}
	defer file.Close()

	cards, err := h.service.GenerateFromFile(c.UserContext(), fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		return err
	}
	return c.JSON(dto.FlashcardsResponse{Flashcards: nonNil(cards)})
}

// Export godoc
// @Summary Export flashcards
// @Description Returns the given flashcards as a downloadable JSON, CSV or YAML file
// @Tags flashcards
// @Accept json
// @Produce json
// @Produce text/csv
// @Produce application/yaml
// @Param format query string true "Export format" Enums(json, csv, yaml)
// @Param request body dto.ExportRequest true "Flashcards to export"
// @Success 200 {file} file
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/export [post]
func (h *FlashcardHandler) Export(c *fiber.Ctx) error {
	format, err := h.validator.ValidateExportFormat(c.Query("format"))
	if err != nil {
		return err
	}

	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}

	body, err := export.Bytes(format, req.Flashcards)
	if err != nil {
		return domain.NewInternalError("Failed to export flashcards", err)
	}

	c.Attachment(format.Filename())
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(body)
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /healthz [get]
func (h *FlashcardHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{Status: "ok", Strategy: h.strategy, Cache: "disabled"}
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(c.UserContext()); err != nil {
			logger.Get().Warn("Cache health check failed", zap.Error(err))
			resp.Cache = "unavailable"
		}
	}
	return c.JSON(resp)
}

func nonNil(cards []domain.Flashcard) []domain.Flashcard {
	if cards == nil {
		return []domain.Flashcard{}
	}
	return cards
}
