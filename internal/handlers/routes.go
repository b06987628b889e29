package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/services"
	"alfredoptarigan/skill-evaluator/internal/web"
)

type Dependencies struct {
	Auth      services.AuthService
	Tokens    *services.TokenManager
	Evaluator services.EvaluatorService
	Worker    services.Worker

	MaxFileSize   int64
	SecureCookies bool
	RateLimitMax  int
	RateWindow    time.Duration
	AccessLog     bool
	Log           *zap.Logger
}

// NewApp builds the fiber app with every page and API route registered.
func NewApp(deps Dependencies) *fiber.App {
	log := logger.OrNop(deps.Log)

	app := fiber.New(fiber.Config{
		AppName:      "Resume & Interview Skills Evaluator",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		// leave room for form fields next to the file
		BodyLimit:    int(deps.MaxFileSize) + 1024*1024,
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler(log),
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
	}))
	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   web.Static(),
		MaxAge: 3600,
	}))

	authMW := NewAuthMiddleware(deps.Auth, deps.Tokens, log)
	app.Use(authMW.LoadUser)

	pages := NewPageHandler(deps.Evaluator, deps.SecureCookies, log)
	auth := NewAuthHandler(deps.Auth, deps.Tokens, deps.SecureCookies, log)
	evaluations := NewEvaluationHandler(deps.Evaluator, deps.Worker, deps.MaxFileSize, log)
	results := NewResultHandler(deps.Evaluator, deps.Worker)
	questions := NewQuestionHandler(deps.Evaluator, log)
	limit := RateLimiter(deps.RateLimitMax, deps.RateWindow)

	// Pages
	app.Get("/", pages.HandleIndex)
	app.Get("/new-session", pages.HandleNewSession)
	app.Get("/login", auth.HandleLoginPage)
	app.Post("/login", auth.HandleLogin)
	app.Get("/register", auth.HandleRegisterPage)
	app.Post("/register", auth.HandleRegister)
	app.Get("/logout", auth.HandleLogout)

	app.Get("/resume", authMW.RequirePageUser, pages.HandleResumeForm)
	app.Get("/interview", authMW.RequirePageUser, pages.HandleInterviewForm)
	app.Get("/history", authMW.RequirePageUser, RequireSession, pages.HandleHistory)
	app.Post("/evaluate/resume", limit, authMW.RequirePageUser, RequireSession, evaluations.HandleResumePage)
	app.Post("/evaluate/interview", limit, authMW.RequirePageUser, RequireSession, evaluations.HandleInterviewPage)

	// JSON API
	api := app.Group("/api")
	api.Post("/generate-questions", limit, questions.HandleGenerate)

	v1 := api.Group("/v1", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"engine": deps.Evaluator.EngineName(),
			"time":   time.Now(),
		})
	})
	v1.Post("/auth/token", limit, auth.HandleIssueToken)
	v1.Post("/evaluations/resume", limit, authMW.RequireAPIUser, evaluations.HandleSubmitResume)
	v1.Post("/evaluations/interview", limit, authMW.RequireAPIUser, evaluations.HandleSubmitInterview)
	v1.Get("/evaluations/:id", authMW.RequireAPIUser, results.HandleGetResult)
	v1.Get("/history", authMW.RequireAPIUser, results.HandleHistory)

	return app
}
