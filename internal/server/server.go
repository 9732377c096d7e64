// Package server wires services, handlers and middleware into a Fiber application.
package server

import (
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Server is the HTTP application and the services behind it.
type Server struct {
	App       *fiber.App
	Auth      *services.AuthService
	Products  *services.ProductService
	Orders    *services.OrderService
	Users     *services.UserService
	Dashboard *services.DashboardService
}

// Options tune the application beyond the stores it serves.
type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins string
	AccessLog   bool
	Policy      middleware.Policy // DefaultPolicy when nil
	Publisher   services.EventPublisher
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JWTSecret:   cfg.JWT.Secret,
		TokenTTL:    cfg.JWT.TTL,
		CORSOrigins: cfg.CORS.Origins,
		AccessLog:   true,
	}
}

// New builds the application over repos.
func New(repos *repositories.Set, opts Options, logger *zap.Logger) *Server {
	if opts.Policy == nil {
		opts.Policy = middleware.DefaultPolicy()
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}

	authService := services.NewAuthService(repos.Users, opts.JWTSecret, opts.TokenTTL, logger)
	productService := services.NewProductService(repos.Products, repos.Users, logger)
	orderService := services.NewOrderService(repos.Orders, repos.Products, opts.Publisher, logger)
	userService := services.NewUserService(repos.Users, logger)
	dashboardService := services.NewDashboardService(repos)

	app := fiber.New(fiber.Config{
		AppName: "storefront",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code == fiber.StatusInternalServerError {
				logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
				return c.Status(code).JSON(fiber.Map{"message": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"message": err.Error()})
		},
	})

	// --- Middleware ---
	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New()) // Request logger
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- API Routes ---
	api := app.Group("/api")
	auth := middleware.AuthRequired(authService, logger)

	handlers.NewProductHandler(productService, logger).RegisterRoutes(api, auth, opts.Policy)
	handlers.NewOrderHandler(orderService, logger).RegisterRoutes(api, auth, opts.Policy)
	// Account routes first: /users/profile must not be taken for /users/:id.
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(api, auth)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(api, auth, opts.Policy)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(api, auth, opts.Policy)

	return &Server{
		App:       app,
		Auth:      authService,
		Products:  productService,
		Orders:    orderService,
		Users:     userService,
		Dashboard: dashboardService,
	}
}
