// Package server assembles the fiber application.
package server

import (
	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/handler"
	"cardsmith/internal/middleware"
	"cardsmith/internal/service"
	"cardsmith/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

// multipartOverhead leaves room for form boundaries around a maximum-size file.
const multipartOverhead = 64 * 1024

// New builds the app with every route registered. cache may be nil.
func New(cfg *config.Config, svc service.FlashcardService, cache domain.Cache) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "cardsmith",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.MaxUploadBytes + multipartOverhead,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       300,
	}))

	validator := validation.NewValidator(cfg.Generation.MaxInputChars, int64(cfg.Server.MaxUploadBytes), cfg.Server.AcceptedTypes)
	flashcardHandler := handler.NewFlashcardHandler(svc, validator, cache, cfg.Generation.Strategy)
	webHandler := handler.NewWebHandler(svc, validator.AcceptList())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/healthz", flashcardHandler.Health)

	app.Get("/", webHandler.Index)
	app.Post("/", webHandler.Submit)

	apiGroup := app.Group("/api")
	apiGroup.Post("/generate", flashcardHandler.Generate)
	apiGroup.Post("/upload", flashcardHandler.Upload)
	apiGroup.Post("/export", flashcardHandler.Export)

	return app
}
