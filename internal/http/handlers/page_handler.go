package handlers

import "github.com/gofiber/fiber/v2"

type PageHandler struct{}

// Home renders the landing page (login redirects here).
func (h *PageHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", fiber.Map{})
}
