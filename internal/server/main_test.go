package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a full server on an in-memory database, with routes
// registered and sessions held in process memory.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{Port: "8080", Env: "test"}
	srv := NewServerWithDeps(cfg, db, nil)

	app := srv.NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return srv, app, db
}

// postForm submits an urlencoded form, carrying any session cookies.
func postForm(t *testing.T, app *fiber.App, path string, form url.Values, cookies []*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getPage(t *testing.T, app *fiber.App, path string, cookies []*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// signupUser registers an account through the real signup endpoint and
// returns the created user plus the authenticated session cookies.
func signupUser(t *testing.T, srv *Server, app *fiber.App, db *gorm.DB, username string) (*models.User, []*http.Cookie) {
	t.Helper()

	resp := postForm(t, app, "/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"secret1"},
	}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	var user models.User
	require.NoError(t, db.Where("username = ?", username).First(&user).Error)
	return &user, cookies
}

// postMessage creates a message directly through the service layer.
func postMessage(t *testing.T, srv *Server, userID uint, text string) *models.Message {
	t.Helper()

	msg, err := srv.messageService.Post(context.Background(), userID, text)
	require.NoError(t, err)
	return msg
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// follow creates a follow edge directly through the service layer.
func follow(t *testing.T, srv *Server, followerID, followedID uint) {
	t.Helper()
	require.NoError(t, srv.followService.Follow(context.Background(), followerID, followedID))
}
