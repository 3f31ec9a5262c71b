package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/config"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/models"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidImage       = errors.New("profile photo must be a JPEG, PNG or WebP image")
	ErrPhotoRequired      = errors.New("profile photo is required")
	ErrForbidden          = errors.New("cannot modify another user's profile")
	ErrMissingFields      = errors.New("username, email and password are required")
	ErrNameRequired       = errors.New("name is required")
)

// RegisterInput is a parsed registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Photo    []byte
}

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	photos storage.PhotoStore
}

func NewAuthService(db *gorm.DB, cfg *config.Config, photos storage.PhotoStore) *AuthService {
	return &AuthService{db: db, cfg: cfg, photos: photos}
}

func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*dto.RegisterResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if len(in.Photo) == 0 {
		return nil, ErrPhotoRequired
	}
	ext, err := PhotoExtension(in.Photo)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	url, err := s.photos.Save(ctx, in.Username, in.Photo, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     string(hash),
		ProfilePhoto: url,
	}
	if err := db.Create(&user).Error; err != nil {
		s.discardPhoto(ctx, url)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username, "storage", s.photos.Name())
	return &dto.RegisterResponse{
		Message: "User registered successfully",
		User:    userResponse(&user),
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(&user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    userResponse(&user),
	}, nil
}

// UpdatePhoto replaces the photo of username. subject is the user id carried
// by the caller's token and must own the account.
func (s *AuthService) UpdatePhoto(ctx context.Context, subject uint, username string, photo []byte) (*models.User, error) {
	ext, err := PhotoExtension(photo)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.ID != subject {
		return nil, ErrForbidden
	}

	url, err := s.photos.Save(ctx, user.Username, photo, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	old := user.ProfilePhoto
	if err := db.Model(&user).Update("profile_photo", url).Error; err != nil {
		s.discardPhoto(ctx, url)
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.ProfilePhoto = url
	if old != "" {
		s.discardPhoto(ctx, old)
	}
	return &user, nil
}

func (s *AuthService) discardPhoto(ctx context.Context, url string) {
	if err := s.photos.Delete(ctx, url); err != nil && !errors.Is(err, storage.ErrNotOwned) {
		slog.Warn("failed to delete photo", "url", url, "error", err)
	}
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"email":    user.Email,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// PhotoExtension sniffs the image type and returns the file extension to
// store it under.
func PhotoExtension(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrPhotoRequired
	}
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	}
	return "", ErrInvalidImage
}

func userResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           int(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		ProfilePhoto: u.ProfilePhoto,
	}
}
