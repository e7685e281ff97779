package httpapi

import "github.com/gofiber/fiber/v2"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Register mounts GET / on r.
func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
