package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/config"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/database"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/routes"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/services"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

var jpeg = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open("sqlite", "file::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	photos, err := storage.NewLocalStore(t.TempDir(), "http://test")
	require.NoError(t, err)

	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour, CORSOrigins: "*"}
	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewAuthHandler(services.NewAuthService(db, cfg, photos), 1<<20),
		handlers.NewUploadHandler(services.NewUploadService(photos), 1<<20),
		handlers.NewHealthHandler(photos),
	)
	return app
}

type part struct {
	filename, contentType string
	data                  []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, p := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, p.filename))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func register(t *testing.T, app *fiber.App, username, email string) *http.Response {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/auth/register",
		map[string]string{dto.FieldUsername: username, dto.FieldEmail: email, dto.FieldPassword: "p1"},
		map[string]part{dto.FieldProfilePhoto: {dto.PhotoFilename, dto.PhotoContentType, jpeg}})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func login(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(dto.LoginRequest{Email: email, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	app := newApp(t)

	resp := register(t, app, "alice", "alice@x.com")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	out := decode[dto.RegisterResponse](t, resp)
	assert.Equal(t, 1, out.User.ID)
	assert.Equal(t, "alice", out.User.Username)
	assert.True(t, strings.HasPrefix(out.User.ProfilePhoto, "http://test/uploads/alice_"), out.User.ProfilePhoto)

	resp = register(t, app, "alice2", "ALICE@x.com")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "email already exists", decode[dto.ErrorResponse](t, resp).Message)

	resp = register(t, app, "alice", "other@x.com")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "username already exists", decode[dto.ErrorResponse](t, resp).Message)
}

func TestRegister_RejectsBadPhoto(t *testing.T) {
	app := newApp(t)
	fields := map[string]string{dto.FieldUsername: "bob", dto.FieldEmail: "bob@x.com", dto.FieldPassword: "p1"}

	cases := []struct {
		name  string
		files map[string]part
	}{
		{"missing", nil},
		{"wrong type", map[string]part{dto.FieldProfilePhoto: {"notes.txt", "text/plain", []byte("hello")}}},
		{"lying extension", map[string]part{dto.FieldProfilePhoto: {"x.jpg", "image/jpeg", []byte("not an image")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := multipartRequest(t, http.MethodPost, "/api/auth/register", fields, tc.files)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.True(t, decode[dto.ErrorResponse](t, resp).Error)
		})
	}
}

func TestLoginAndUpdatePhoto(t *testing.T) {
	app := newApp(t)
	require.Equal(t, fiber.StatusCreated, register(t, app, "alice", "alice@x.com").StatusCode)
	require.Equal(t, fiber.StatusCreated, register(t, app, "bob", "bob@x.com").StatusCode)

	resp := login(t, app, "alice@x.com", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = login(t, app, "alice@x.com", "p1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.LoginResponse](t, resp)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, "alice", out.User.Username)

	update := func(username, token string) *http.Response {
		req := multipartRequest(t, http.MethodPut, "/api/user/"+username, nil,
			map[string]part{dto.FieldProfilePhoto: {dto.PhotoFilename, dto.PhotoContentType, jpeg}})
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp = update("alice", out.Token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Profile updated successfully", decode[dto.UpdateResponse](t, resp).Message)

	assert.Equal(t, fiber.StatusForbidden, update("bob", out.Token).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, update("carol", out.Token).StatusCode)
	assert.Equal(t, fiber.StatusUnauthorized, update("alice", "").StatusCode)
}

func TestUpload(t *testing.T) {
	app := newApp(t)

	req := multipartRequest(t, http.MethodPost, "/upload",
		map[string]string{dto.FieldName: "avatar"},
		map[string]part{dto.FieldImage: {"a.jpg", "image/jpeg", jpeg}})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode[dto.UploadResponse](t, resp)
	assert.Equal(t, "success", out.Status)
	assert.True(t, strings.HasPrefix(out.PhotoURL, "http://test/uploads/avatar_"))

	req = multipartRequest(t, http.MethodPost, "/upload", nil,
		map[string]part{dto.FieldImage: {"a.jpg", "image/jpeg", jpeg}})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	out := decode[dto.HealthResponse](t, resp)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "ok", out.DB)
	assert.Equal(t, "local", out.Storage)
}
