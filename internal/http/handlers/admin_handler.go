package handlers

import (
	applog "lucaslea/internal/log"
	"lucaslea/internal/repos"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Users *repos.UserRepo
}

// UsersPage lists accounts (excluding admins) with their confirmation state.
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	var users []struct {
		ID          string `db:"id"`
		Email       string `db:"email"`
		Name        string `db:"name"`
		Firstname   string `db:"firstname"`
		Role        string `db:"role"`
		IsConfirmed bool   `db:"is_confirmed"`
	}
	if err := h.Users.DB.Select(&users, `SELECT id,email,name,firstname,role,is_confirmed FROM users WHERE role != 'ADMIN' ORDER BY email`); err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

// DeleteUser deletes an account and its sessions.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Users.DeleteUserCascade(id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.Redirect("/admin/users")
}
