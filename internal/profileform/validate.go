package profileform

import "strings"

func passwordsMatch(s State) bool {
	return s.Mode != ModeSignUp || s.Password == s.ConfirmPassword
}

// validate returns the first failing rule. Email comes before password, and
// username is only checked in sign-up.
func validate(s State) error {
	if strings.TrimSpace(s.Email) == "" {
		return &ValidationError{Field: FieldEmail, Message: MsgEmailRequired}
	}
	if strings.TrimSpace(s.Password) == "" {
		return &ValidationError{Field: FieldPassword, Message: MsgPasswordRequired}
	}
	if s.Mode == ModeSignUp && strings.TrimSpace(s.Username) == "" {
		return &ValidationError{Field: FieldUsername, Message: MsgUsernameRequired}
	}
	return nil
}
