package profileform

import "github.com/ahmetcoskunkizilkaya/chatprofile/internal/imagesource"

type Mode int

const (
	ModeSignUp Mode = iota
	ModeSignIn
)

func (m Mode) String() string {
	if m == ModeSignIn {
		return "sign-in"
	}
	return "sign-up"
}

type Phase int

const (
	PhaseEditing Phase = iota
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
)

func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	default:
		return "editing"
	}
}

type Field int

const (
	FieldUsername Field = iota
	FieldEmail
	FieldPassword
	FieldConfirmPassword
)

// ParseField maps the host's field names onto Field.
func ParseField(name string) (Field, bool) {
	switch name {
	case "username":
		return FieldUsername, true
	case "email":
		return FieldEmail, true
	case "password":
		return FieldPassword, true
	case "confirm", "confirmPassword", "confirm_password":
		return FieldConfirmPassword, true
	}
	return 0, false
}

type Alert struct {
	Message string
}

// State is a value snapshot of the form. Image and Alert are copied on read so
// subscribers may keep them.
type State struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Mode            Mode
	Image           *imagesource.Reference
	Submitting      bool
	Alert           *Alert
	Phase           Phase

	ImagePickerVisible bool
	// EmojiPickerVisible is only ever true while ImagePickerVisible is.
	EmojiPickerVisible bool
}

func (s State) clone() State {
	if s.Image != nil {
		ref := *s.Image
		s.Image = &ref
	}
	if s.Alert != nil {
		a := *s.Alert
		s.Alert = &a
	}
	return s
}

func (s *State) set(f Field, value string) {
	switch f {
	case FieldUsername:
		s.Username = value
	case FieldEmail:
		s.Email = value
	case FieldPassword:
		s.Password = value
	case FieldConfirmPassword:
		s.ConfirmPassword = value
	}
}

func (s *State) closePickers() {
	s.ImagePickerVisible = false
	s.EmojiPickerVisible = false
}
