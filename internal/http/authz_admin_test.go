package handlers_test

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	html "github.com/gofiber/template/html/v2"
	"golang.org/x/crypto/bcrypt"

	"lucaslea/internal/domain"
	"lucaslea/internal/http/handlers"
	"lucaslea/internal/repos"
	"lucaslea/internal/services"
)

func newAdminApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	users := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: users}
	authH := &handlers.AuthHandler{Auth: authSvc}
	adminH := &handlers.AdminHandler{Users: users}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	app.Post("/login", authH.Login)
	// Mirrors production: form posts under /admin carry the CSRF check.
	admin := app.Group("/admin",
		csrf.New(csrf.Config{
			KeyLookup:      "form:csrf",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			ContextKey:     "csrf",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
			},
		}),
		handlers.RequireAdmin(authSvc))
	admin.Get("/users", adminH.UsersPage)
	admin.Post("/users/:id/delete", adminH.DeleteUser)
	return app, users
}

func loginAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := postForm(t, app, "/login", url.Values{
		"email":    {"admin@lucaslea.test"},
		"password": {"Passw0rd!"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login: want 200, got %d", resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	if sid == "" {
		t.Fatal("sid cookie missing")
	}
	return sid
}

func TestAdminUsersRequiresAdminRole(t *testing.T) {
	app, _ := newAdminApp(t)

	// Anonymous: bounced to login.
	resp, err := app.Test(httptest.NewRequest("GET", "/admin/users", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous: want 302, got %d", resp.StatusCode)
	}

	// Seeded admin can log in and reach the page.
	sid := loginAdmin(t, app)
	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin users page: want 200, got %d", resp.StatusCode)
	}
}

func TestAdminDeleteRequiresCSRFToken(t *testing.T) {
	app, users := newAdminApp(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pw"), bcrypt.MinCost)
	victim := &domain.User{
		Email: "victim@example.com", Name: "Doe", Firstname: "Jane",
		Hash: string(hash), Role: domain.RoleUser,
		ConfirmToken: strings.Repeat("ab", 32),
	}
	if err := users.Create(victim); err != nil {
		t.Fatalf("create: %v", err)
	}

	sid := loginAdmin(t, app)

	// fetch csrf token
	req := httptest.NewRequest("GET", "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	csrfTok := cookieValue(resp, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	// Form post without the token: rejected, record untouched.
	req = httptest.NewRequest("POST", "/admin/users/"+victim.ID+"/delete", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("missing csrf: want 403, got %d", resp.StatusCode)
	}
	if _, err := users.ByEmail(victim.Email); err != nil {
		t.Fatalf("record should survive a rejected post: %v", err)
	}

	// With cookie + matching form field: delete goes through.
	form := url.Values{"csrf": {csrfTok}}
	req = httptest.NewRequest("POST", "/admin/users/"+victim.ID+"/delete", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	resp, err = app.Test(req, 15000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("delete: want 302, got %d", resp.StatusCode)
	}
	if _, err := users.ByEmail(victim.Email); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("record should be gone, got %v", err)
	}
}
