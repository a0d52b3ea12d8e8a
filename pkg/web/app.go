package web

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	service  SessionService
	validate *validator.Validate
}

func NewAPI(service SessionService) *API {
	return &API{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := NewHandlers(a.service, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Pilotwire Gateway")
	})

	s := app.Group("/session")
	s.Get("/", handlers.GetSession)
	s.Get("/nodes", handlers.GetNodeRecords)
	s.Post("/start", handlers.StartExecution)
	s.Post("/stop", handlers.StopExecution)
	s.Post("/input", handlers.RespondInput)
	s.Post("/confirm-login", handlers.ConfirmLogin)
	s.Post("/reset", handlers.ResetSession)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
