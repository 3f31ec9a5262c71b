package dto

// Multipart field names of the registration and photo update forms.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldProfilePhoto = "profilePhoto"

	// Fields of the standalone upload form.
	FieldName  = "name"
	FieldImage = "image"

	PhotoFilename    = "compressed.jpg"
	PhotoContentType = "image/jpeg"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	ProfilePhoto string `json:"profilePhoto"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

type UpdateResponse struct {
	Message string `json:"message"`
}

type UploadResponse struct {
	Status   string `json:"status"`
	PhotoURL string `json:"photo_url"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Storage   string `json:"storage"`
}
