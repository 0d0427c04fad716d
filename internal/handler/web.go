package handler

import (
	"bytes"
	"context"
	"errors"
	"io"

	"cardsmith/internal/domain"
	"cardsmith/internal/logger"
	"cardsmith/internal/render"
	"cardsmith/internal/service"
	"cardsmith/internal/session"
	"cardsmith/internal/state"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebHandler serves the server-rendered flashcard page. Each form post
// runs a fresh session against the flashcard service.
type WebHandler struct {
	service service.FlashcardService
	accept  string
}

func NewWebHandler(service service.FlashcardService, accept string) *WebHandler {
	return &WebHandler{service: service, accept: accept}
}

// Index renders the empty page.
func (h *WebHandler) Index(c *fiber.Ctx) error {
	return h.page(c, state.State{})
}

// Submit handles the page form: an attached file is uploaded, otherwise
// the text is generated from.
func (h *WebHandler) Submit(c *fiber.Ctx) error {
	sess := session.New(serviceGenerator{h.service}, serviceUploader{h.service})
	sess.SetText(c.FormValue("text"))

	var err error
	if fileHeader, ferr := c.FormFile("file"); ferr == nil && fileHeader.Filename != "" {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return domain.NewInternalError("Failed to process file", openErr)
		}
		defer file.Close()
		err = sess.Upload(c.UserContext(), fileHeader.Filename, file)
	} else {
		err = sess.Generate(c.UserContext())
	}
	if err != nil && !errors.Is(err, session.ErrEmptyInput) {
		logger.Get().Debug("Page action failed", zap.Error(err))
	}

	return h.page(c, sess.State())
}

func (h *WebHandler) page(c *fiber.Ctx, s state.State) error {
	var buf bytes.Buffer
	if err := render.HTML(&buf, render.Build(s), h.accept); err != nil {
		return domain.NewInternalError("Failed to render page", err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// serviceGenerator runs the page's generate action in-process.
type serviceGenerator struct {
	service service.FlashcardService
}

func (g serviceGenerator) Generate(ctx context.Context, text string) ([]domain.Flashcard, error) {
	return g.service.GenerateFromText(ctx, text)
}

func (g serviceGenerator) Name() string {
	return "server"
}

// serviceUploader returns cards directly, like the remote backend does.
type serviceUploader struct {
	service service.FlashcardService
}

func (u serviceUploader) Upload(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	cards, err := u.service.GenerateFromFile(ctx, fileName, r, 0)
	if err != nil {
		return nil, err
	}
	return &domain.UploadResult{Cards: cards}, nil
}
