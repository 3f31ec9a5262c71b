package regclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/gofiber/fiber/v2"
)

const (
	registerPath = "api/auth/register"
	loginPath    = "api/auth/login"
	userPath     = "api/user/"
	uploadPath   = "upload"

	DefaultTimeout = 15 * time.Second
)

type RegisterRequest struct {
	Username string
	Email    string
	Password string
	// Photo holds JPEG bytes.
	Photo []byte
}

// Client talks to the registration service. It holds no global state; every
// form session gets the instance it was constructed with.
type Client struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/") + "/",
		timeout:   DefaultTimeout,
		userAgent: "chatprofile",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*dto.RegisterResponse, error) {
	body, contentType, err := multipartBody(map[string]string{
		dto.FieldUsername: req.Username,
		dto.FieldEmail:    req.Email,
		dto.FieldPassword: req.Password,
	}, dto.FieldProfilePhoto, req.Photo)
	if err != nil {
		return nil, err
	}

	agent := fiber.Post(c.baseURL + registerPath).ContentType(contentType).Body(body)

	var resp dto.RegisterResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("registration accepted", "user_id", resp.User.ID, "username", resp.User.Username)
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	agent := fiber.Post(c.baseURL + loginPath).JSON(req)

	var resp dto.LoginResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfilePhoto replaces the photo of an existing account. The form never
// calls it: an avatar is fixed once the profile is created. It is kept for
// scripts and admin tooling that talk to the same service.
func (c *Client) UpdateProfilePhoto(ctx context.Context, token, username string, photo []byte) (*dto.UpdateResponse, error) {
	body, contentType, err := multipartBody(nil, dto.FieldProfilePhoto, photo)
	if err != nil {
		return nil, err
	}

	agent := fiber.Put(c.baseURL + userPath + url.PathEscape(username)).
		ContentType(contentType).
		Body(body)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)

	var resp dto.UpdateResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Upload posts a named image to the standalone upload endpoint. Like
// UpdateProfilePhoto it is not part of the sign-up flow.
func (c *Client) Upload(ctx context.Context, name string, photo []byte) (*dto.UploadResponse, error) {
	body, contentType, err := multipartBody(map[string]string{dto.FieldName: name}, dto.FieldImage, photo)
	if err != nil {
		return nil, err
	}

	agent := fiber.Post(c.baseURL + uploadPath).ContentType(contentType).Body(body)

	var resp dto.UploadResponse
	if err := c.do(ctx, agent, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type agentResult struct {
	code int
	body []byte
	errs []error
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, out any) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		fiber.ReleaseAgent(agent)
		return &TransportError{Err: context.DeadlineExceeded}
	}
	agent.Timeout(timeout)
	agent.UserAgent(c.userAgent)

	done := make(chan agentResult, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- agentResult{code: code, body: body, errs: errs}
	}()

	var res agentResult
	select {
	case <-ctx.Done():
		return &TransportError{Err: ctx.Err()}
	case res = <-done:
	}

	if len(res.errs) > 0 {
		err := errors.Join(res.errs...)
		c.logger.Warn("registration service unreachable", "error", err)
		return &TransportError{Err: err}
	}
	if res.code < 200 || res.code > 299 {
		c.logger.Warn("registration service rejected request", "status", res.code)
		return &StatusError{Code: res.code, Body: res.body}
	}
	if out == nil || len(res.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.body, out); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// multipartBody builds the form by hand so the photo part carries
// image/jpeg; fiber's FileData always sends application/octet-stream.
func multipartBody(fields map[string]string, fileField string, photo []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range []string{dto.FieldUsername, dto.FieldEmail, dto.FieldPassword, dto.FieldName} {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, dto.PhotoFilename))
		h.Set("Content-Type", dto.PhotoContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create photo part: %w", err)
		}
		if _, err := part.Write(photo); err != nil {
			return nil, "", fmt.Errorf("write photo part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
