package profileform

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/regclient"
)

// Alert texts shown by the form.
const (
	MsgPasswordMismatch = "Passwords don't match!"
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgUsernameRequired = "Username is required"
	MsgPhotoRequired    = "Profile photo is required"
	MsgPhotoFailed      = "Failed to process profile photo"
	MsgRegisterFailed   = "Registration failed"
	MsgSignInFailed     = "Sign in failed"
)

var ErrSubmitInFlight = errors.New("submission already in progress")

type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type ImageEncodingError struct {
	Message string
	Err     error
}

func (e *ImageEncodingError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ImageEncodingError) Unwrap() error { return e.Err }

// NetworkError is a failed Register or Login call.
type NetworkError struct {
	Mode Mode
	Err  error
}

func (e *NetworkError) Error() string {
	return e.Mode.String() + " request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AlertMessage is the text the user sees: the server's own words when it sent
// any, a generic line otherwise.
func (e *NetworkError) AlertMessage() string {
	var statusErr *regclient.StatusError
	if errors.As(e.Err, &statusErr) {
		if msg := statusErr.Message(); msg != "" {
			return msg
		}
	}
	if e.Mode == ModeSignIn {
		return MsgSignInFailed
	}
	return MsgRegisterFailed
}

func alertText(err error) string {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.AlertMessage()
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	var encErr *ImageEncodingError
	if errors.As(err, &encErr) {
		return encErr.Message
	}
	return err.Error()
}
