// Package httpapi exposes a fiber HTTP surface for submitting commands,
// checking health, and streaming a live preview of the render loop over a
// websocket, guarded by JWT bearer auth.
package httpapi

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/freyr-engine/freyr/internal/health"
	"github.com/freyr-engine/freyr/internal/orchestrator"
)

// Config configures the listener, auth, and admin credentials.
type Config struct {
	Addr              string
	JWT               JWTConfig
	AdminUser         string
	AdminPasswordHash string // bcrypt hash, see HashPassword
}

// Transport owns the fiber app, the command queue it feeds, and the preview
// hub it broadcasts render-loop samples through.
type Transport struct {
	cfg    Config
	app    *fiber.App
	queue  *orchestrator.CommandQueue
	Hub    *PreviewHub
	Health *health.HealthChecker // optional; nil reports a bare "up" status
}

// New builds the fiber app and routes but does not start listening; call
// Start to bind Config.Addr.
func New(cfg Config, queue *orchestrator.CommandQueue) *Transport {
	if cfg.JWT.SkipPaths == nil {
		cfg.JWT.SkipPaths = []string{"/api/v1/health", "/api/v1/login"}
	}

	app := fiber.New(fiber.Config{AppName: "freyr"})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	t := &Transport{cfg: cfg, app: app, queue: queue, Hub: NewPreviewHub()}

	app.Use(JWTMiddleware(cfg.JWT))

	api := app.Group("/api/v1")
	api.Get("/health", t.handleHealth)
	api.Post("/login", t.handleLogin)
	api.Post("/command", t.handleCommand)

	app.Use("/api/v1/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(t.Hub.HandleConn))

	return t
}

// Start runs the hub loop and begins serving HTTP on Config.Addr. Blocks
// until the listener stops or errors.
func (t *Transport) Start() error {
	go t.Hub.Run()
	return t.app.Listen(t.cfg.Addr)
}

// Stop gracefully shuts down the fiber app.
func (t *Transport) Stop() error {
	return t.app.Shutdown()
}

func (t *Transport) handleHealth(c *fiber.Ctx) error {
	if t.Health == nil {
		return c.JSON(fiber.Map{"status": health.StatusHealthy, "queued": t.queue.Len()})
	}
	overall := t.Health.GetOverallStatus()
	status := fiber.StatusOK
	if overall == health.StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"queued": t.queue.Len(),
		"checks": t.Health.GetCheckResults(),
	})
}

func (t *Transport) handleLogin(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Username != t.cfg.AdminUser || !CheckPassword(t.cfg.AdminPasswordHash, body.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	token, err := IssueToken(body.Username, t.cfg.JWT)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"token": token})
}

func (t *Transport) handleCommand(c *fiber.Ctx) error {
	var body struct {
		Line string `json:"line"`
	}
	if err := c.BodyParser(&body); err != nil || body.Line == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "line is required"})
	}
	username, _ := c.Locals("username").(string)
	if username == "" {
		username = "anonymous"
	}
	t.queue.Enqueue(body.Line, fmt.Sprintf("http:%s", username))
	return c.JSON(fiber.Map{"queued": true})
}
