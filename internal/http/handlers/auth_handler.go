package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "lucaslea/internal/log"
	"lucaslea/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false,
		})
	}
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{})
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{})
}

// Login handles POST /login. Responses follow the JSON envelope the front-end
// forms expect: {status, redirect} on success, {status, message} otherwise.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")

	u, err := h.Auth.Login(sid, email, pass)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailInvalid):
			applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
			return jsonError(c, fiber.StatusBadRequest, "Invalid email address.")
		case errors.Is(err, services.ErrNotConfirmed):
			applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "unconfirmed"})
			return jsonError(c, fiber.StatusForbidden, "Please confirm your email address before logging in.")
		case errors.Is(err, services.ErrUserNotFound):
			applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "not_found"})
			return jsonError(c, fiber.StatusUnauthorized, "User not found.")
		case errors.Is(err, services.ErrWrongPassword):
			applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password"})
			return jsonError(c, fiber.StatusUnauthorized, "Wrong password.")
		default:
			applog.Error(c, "auth.login.error", err, map[string]any{"email": email})
			return jsonError(c, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
		}
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "user_id": u.ID})
	return c.JSON(fiber.Map{"status": "success", "redirect": "/"})
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in := services.RegisterInput{
		Name:            c.FormValue("name"),
		Firstname:       c.FormValue("firstname"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
	}

	if err := h.Auth.Register(in); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailInvalid):
			return jsonError(c, fiber.StatusBadRequest, "Invalid email address.")
		case errors.Is(err, services.ErrNameInvalid):
			return jsonError(c, fiber.StatusBadRequest, "Name and firstname are required.")
		case errors.Is(err, services.ErrPasswordMismatch):
			return jsonError(c, fiber.StatusBadRequest, "Passwords do not match.")
		case errors.Is(err, services.ErrEmailTaken):
			// Generic on purpose: clients must not learn which constraint fired.
			applog.Security(c, "auth.register.conflict", map[string]any{"email": in.Email})
			return jsonError(c, fiber.StatusConflict, "Account could not be created.")
		default:
			applog.Error(c, "auth.register.error", err, map[string]any{"email": in.Email})
			return jsonError(c, fiber.StatusInternalServerError, "Error creating the account.")
		}
	}

	applog.Audit(c, "auth.register.success", map[string]any{"email": in.Email})
	return c.JSON(fiber.Map{"status": "success", "message": "A confirmation email has been sent."})
}

// Confirm handles GET /confirm/:token (plaintext responses, link is opened
// straight from the email client).
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		token = c.Query("token")
	}

	if err := h.Auth.Confirm(token); err != nil {
		switch {
		case errors.Is(err, services.ErrTokenMissing):
			return c.Status(fiber.StatusBadRequest).SendString("Token missing.")
		case errors.Is(err, services.ErrTokenNotFound):
			applog.Security(c, "auth.confirm.fail", map[string]any{"reason": "unknown_token"})
			return c.Status(fiber.StatusNotFound).SendString("Invalid or expired confirmation link.")
		default:
			applog.Error(c, "auth.confirm.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
		}
	}

	applog.Audit(c, "auth.confirm.success", nil)
	return c.SendString("Your account has been confirmed successfully!")
}

// Account renders the logged-in user's profile; RequireUser puts the
// session identity into Locals before this runs.
func (h *AuthHandler) Account(c *fiber.Ctx) error {
	return render(c, "account", fiber.Map{})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	_ = h.Auth.Logout(sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

// MethodNotAllowed backs the catch-all verb routes on /login and /register.
func MethodNotAllowed(c *fiber.Ctx) error {
	applog.Security(c, "http.method.blocked", map[string]any{"method": c.Method()})
	return jsonError(c, fiber.StatusMethodNotAllowed, "Request method not allowed.")
}
