package regclient

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, setup func(app *fiber.App)) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setup(app)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestRegister_SendsMultipartForm(t *testing.T) {
	type received struct {
		username, email, password string
		filename, contentType     string
		photo                     []byte
	}
	got := make(chan received, 1)

	base := serve(t, func(app *fiber.App) {
		app.Post("/api/auth/register", func(c *fiber.Ctx) error {
			fh, err := c.FormFile(dto.FieldProfilePhoto)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).SendString("missing photo")
			}
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			got <- received{
				username:    c.FormValue(dto.FieldUsername),
				email:       c.FormValue(dto.FieldEmail),
				password:    c.FormValue(dto.FieldPassword),
				filename:    fh.Filename,
				contentType: fh.Header.Get("Content-Type"),
				photo:       data,
			}
			return c.Status(fiber.StatusCreated).JSON(dto.RegisterResponse{
				Message: "User registered successfully",
				User:    dto.UserResponse{ID: 7, Username: "alice", Email: "alice@x.com", ProfilePhoto: "http://cdn/7.jpg"},
			})
		})
	})

	resp, err := newClient(t, base).Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "p1",
		Photo:    []byte{0xff, 0xd8, 0xff},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.User.ID)
	assert.Equal(t, "http://cdn/7.jpg", resp.User.ProfilePhoto)

	r := <-got
	assert.Equal(t, "alice", r.username)
	assert.Equal(t, "alice@x.com", r.email)
	assert.Equal(t, "p1", r.password)
	assert.Equal(t, dto.PhotoFilename, r.filename)
	assert.Equal(t, dto.PhotoContentType, r.contentType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, r.photo)
}

func TestRegister_StatusErrorCarriesServerText(t *testing.T) {
	cases := []struct {
		name string
		send func(c *fiber.Ctx) error
		want string
	}{
		{
			name: "plain text",
			send: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusBadRequest).SendString("email already exists")
			},
			want: "email already exists",
		},
		{
			name: "json error response",
			send: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: "username already exists"})
			},
			want: "username already exists",
		},
		{
			name: "empty body",
			send: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusInternalServerError).Send(nil)
			},
			want: "",
		},
		{
			name: "json without message",
			send: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"code": 502})
			},
			want: "",
		},
		{
			name: "status text body",
			send: func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusInternalServerError)
			},
			want: "Internal Server Error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := serve(t, func(app *fiber.App) {
				app.Post("/api/auth/register", tc.send)
			})

			_, err := newClient(t, base).Register(context.Background(), RegisterRequest{Photo: []byte{1}})

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tc.want, statusErr.Message())
		})
	}
}

func TestRegister_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = newClient(t, "http://"+addr).Register(context.Background(), RegisterRequest{Photo: []byte{1}})

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestRegister_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	base := serve(t, func(app *fiber.App) {
		app.Post("/api/auth/register", func(c *fiber.Ctx) error {
			<-release
			return c.SendStatus(fiber.StatusCreated)
		})
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := newClient(t, base).Register(ctx, RegisterRequest{Photo: []byte{1}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLogin(t *testing.T) {
	base := serve(t, func(app *fiber.App) {
		app.Post("/api/auth/login", func(c *fiber.Ctx) error {
			var req dto.LoginRequest
			if err := c.BodyParser(&req); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			if req.Email != "a@b.com" || req.Password != "x" {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "invalid email or password"})
			}
			return c.JSON(dto.LoginResponse{Message: "ok", Token: "tok", User: dto.UserResponse{ID: 3}})
		})
	})
	client := newClient(t, base)

	resp, err := client.Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)

	_, err = client.Login(context.Background(), dto.LoginRequest{Email: "a@b.com", Password: "nope"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, fiber.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "invalid email or password", statusErr.Message())
}

func TestUpdateProfilePhoto_SendsBearerToken(t *testing.T) {
	auth := make(chan string, 1)
	base := serve(t, func(app *fiber.App) {
		app.Put("/api/user/:username", func(c *fiber.Ctx) error {
			auth <- c.Get(fiber.HeaderAuthorization) + " " + c.Params("username")
			return c.JSON(dto.UpdateResponse{Message: "Profile updated"})
		})
	})

	resp, err := newClient(t, base).UpdateProfilePhoto(context.Background(), "tok", "alice", []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "Profile updated", resp.Message)
	assert.Equal(t, "Bearer tok alice", <-auth)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
}

func TestUpload(t *testing.T) {
	base := serve(t, func(app *fiber.App) {
		app.Post("/upload", func(c *fiber.Ctx) error {
			if _, err := c.FormFile(dto.FieldImage); err != nil {
				return c.SendStatus(fiber.StatusBadRequest)
			}
			return c.JSON(dto.UploadResponse{Status: "success", PhotoURL: "http://cdn/" + c.FormValue(dto.FieldName) + ".jpg"})
		})
	})

	resp, err := newClient(t, base).Upload(context.Background(), "avatar", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "http://cdn/avatar.jpg", resp.PhotoURL)
}
