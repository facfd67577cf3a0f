package server

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_Anonymous(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := getPage(t, app, "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Sign up now")
}

func TestHome_FeedShowsOwnAndFollowedOnly(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice, cookies := signupUser(t, srv, app, db, "alice")
	bob, _ := signupUser(t, srv, app, db, "bob")
	carol, _ := signupUser(t, srv, app, db, "carol")

	follow(t, srv, alice.ID, bob.ID)
	postMessage(t, srv, alice.ID, "alice warbles")
	postMessage(t, srv, bob.ID, "bob warbles")
	postMessage(t, srv, carol.ID, "carol warbles")

	resp := getPage(t, app, "/", cookies)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "alice warbles")
	assert.Contains(t, body, "bob warbles")
	assert.NotContains(t, body, "carol warbles")
}

func TestCreateMessage(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice, cookies := signupUser(t, srv, app, db, "alice")

	t.Run("valid text is persisted", func(t *testing.T) {
		resp := postForm(t, app, "/messages/new", url.Values{
			"text": {"first warble"},
		}, cookies)
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, fmt.Sprintf("/users/%d", alice.ID), resp.Header.Get("Location"))

		var msg models.Message
		require.NoError(t, db.Where("user_id = ?", alice.ID).First(&msg).Error)
		assert.Equal(t, "first warble", msg.Text)
	})

	t.Run("overlong text re-presents the form", func(t *testing.T) {
		resp := postForm(t, app, "/messages/new", url.Values{
			"text": {strings.Repeat("x", models.MaxMessageLen+1)},
		}, cookies)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "140 characters or fewer")

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
		assert.Equal(t, int64(1), count, "only the earlier message exists")
	})

	t.Run("blank text is rejected", func(t *testing.T) {
		resp := postForm(t, app, "/messages/new", url.Values{
			"text": {"   "},
		}, cookies)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestShowMessage(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice, _ := signupUser(t, srv, app, db, "alice")
	msg := postMessage(t, srv, alice.ID, "public warble")

	t.Run("visible without a session", func(t *testing.T) {
		resp := getPage(t, app, fmt.Sprintf("/messages/%d", msg.ID), nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "public warble")
	})

	t.Run("missing message is 404", func(t *testing.T) {
		resp := getPage(t, app, "/messages/9999", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteMessage(t *testing.T) {
	srv, app, db := newTestServer(t)
	alice, aliceCookies := signupUser(t, srv, app, db, "alice")
	_, bobCookies := signupUser(t, srv, app, db, "bob")
	msg := postMessage(t, srv, alice.ID, "mine to delete")

	t.Run("a non-owner cannot delete", func(t *testing.T) {
		resp := postForm(t, app, fmt.Sprintf("/messages/%d/delete", msg.ID), nil, bobCookies)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
		assert.Equal(t, int64(1), count, "the message survives")
	})

	t.Run("the owner can delete", func(t *testing.T) {
		resp := postForm(t, app, fmt.Sprintf("/messages/%d/delete", msg.ID), nil, aliceCookies)
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, fmt.Sprintf("/users/%d", alice.ID), resp.Header.Get("Location"))

		var count int64
		require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestStaticAssets(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := getPage(t, app, "/static/style.css", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = getPage(t, app, "/static/images/default-pic.png", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	live := getPage(t, app, "/health/live", nil)
	assert.Equal(t, fiber.StatusOK, live.StatusCode)

	ready := getPage(t, app, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, ready.StatusCode)
}
