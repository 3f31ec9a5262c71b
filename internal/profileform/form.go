package profileform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/dto"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/imagesource"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/profilecache"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/regclient"
)

// Registrar is the remote side of a submission. *regclient.Client satisfies it.
type Registrar interface {
	Register(ctx context.Context, req regclient.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
}

// Encoder turns the picked image into upload bytes. *imageenc.Encoder
// satisfies it.
type Encoder interface {
	Encode(ctx context.Context, ref *imagesource.Reference) ([]byte, error)
}

type Deps struct {
	Registrar Registrar
	Encoder   Encoder
	// Cache is optional; without it successful sign-ups are not remembered.
	Cache  profilecache.Store
	Logger *slog.Logger
}

// Outcome is handed to the success callback.
type Outcome struct {
	Mode  Mode
	User  dto.UserResponse
	Token string
}

type Option func(*Form)

// WithMode sets the mode the form starts in.
func WithMode(m Mode) Option {
	return func(f *Form) { f.state.Mode = m }
}

// Form holds one profile-creation session.
type Form struct {
	registrar Registrar
	encoder   Encoder
	cache     profilecache.Store
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

var _ imagesource.Sink = (*Form)(nil)

func New(deps Deps, opts ...Option) *Form {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &Form{
		registrar: deps.Registrar,
		encoder:   deps.Encoder,
		cache:     deps.Cache,
		logger:    logger,
		subs:      make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns a snapshot.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

// Subscribe registers fn to receive a snapshot after every change. fn is
// called without the form lock held.
func (f *Form) Subscribe(fn func(State)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *Form) update(mutate func(s *State)) {
	f.mu.Lock()
	mutate(&f.state)
	f.notifyLocked()
}

// notifyLocked releases the lock before calling subscribers.
func (f *Form) notifyLocked() {
	snap := f.state.clone()
	subs := make([]func(State), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (f *Form) SetField(field Field, value string) {
	f.update(func(s *State) { s.set(field, value) })
}

// ToggleMode flips between sign-up and sign-in and clears everything the user
// typed or picked.
func (f *Form) ToggleMode() {
	f.update(func(s *State) {
		if s.Mode == ModeSignUp {
			s.Mode = ModeSignIn
		} else {
			s.Mode = ModeSignUp
		}
		s.Username = ""
		s.Email = ""
		s.Password = ""
		s.ConfirmPassword = ""
		s.Image = nil
		s.Alert = nil
		s.closePickers()
	})
}

// RequestImageSelection opens the picker. Sign-in has no avatar.
func (f *Form) RequestImageSelection() {
	f.update(func(s *State) {
		if s.Mode == ModeSignIn {
			return
		}
		s.ImagePickerVisible = true
	})
}

func (f *Form) OpenEmojiPicker() {
	f.update(func(s *State) {
		if s.Mode == ModeSignIn {
			return
		}
		s.ImagePickerVisible = true
		s.EmojiPickerVisible = true
	})
}

func (f *Form) CloseImagePicker() {
	f.update(func(s *State) { s.closePickers() })
}

func (f *Form) OnImageResolved(ref *imagesource.Reference) {
	f.update(func(s *State) {
		if ref != nil {
			r := *ref
			s.Image = &r
		}
		s.closePickers()
	})
}

func (f *Form) OnPermissionDenied(reason string) {
	f.ShowAlert(reason)
}

func (f *Form) OnCaptureFailed(reason string) {
	f.ShowAlert(reason)
}

func (f *Form) ShowAlert(msg string) {
	f.update(func(s *State) { s.Alert = &Alert{Message: msg} })
}

// DismissAlert clears the alert and closes any open sheet with it.
func (f *Form) DismissAlert() {
	f.update(func(s *State) {
		s.Alert = nil
		s.closePickers()
	})
}

// Submit runs one submission. Failures end up as an alert on the form; the
// only error returned is ErrSubmitInFlight. onSuccess is called at most once.
func (f *Form) Submit(ctx context.Context, onSuccess func(Outcome)) error {
	f.mu.Lock()
	if f.state.Submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if !passwordsMatch(f.state) {
		f.state.Alert = &Alert{Message: MsgPasswordMismatch}
		f.notifyLocked()
		return nil
	}
	f.state.Submitting = true
	f.state.Phase = PhaseValidating
	snap := f.state.clone()
	f.notifyLocked()

	succeeded := false
	defer func() {
		f.update(func(s *State) {
			s.Submitting = false
			if !succeeded {
				s.Phase = PhaseEditing
			}
		})
	}()

	outcome, err := f.safeSubmit(ctx, snap)
	if err != nil {
		f.logger.Warn("profile submission failed", "mode", snap.Mode.String(), "error", err)
		f.ShowAlert(alertText(err))
		return nil
	}

	succeeded = true
	f.update(func(s *State) { s.Phase = PhaseSucceeded })
	f.logger.Info("profile submitted", "mode", snap.Mode.String(), "user_id", outcome.User.ID)
	if onSuccess != nil {
		onSuccess(outcome)
	}
	return nil
}

// safeSubmit turns a panic in the encoder or registrar into a submission
// failure so the form never stays stuck in Submitting.
func (f *Form) safeSubmit(ctx context.Context, s State) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("profile submission panicked", "mode", s.Mode.String(), "panic", r)
			outcome = Outcome{}
			err = &NetworkError{Mode: s.Mode, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return f.submit(ctx, s)
}

func (f *Form) submit(ctx context.Context, s State) (Outcome, error) {
	if err := validate(s); err != nil {
		return Outcome{}, err
	}

	if s.Mode == ModeSignIn {
		f.update(func(st *State) { st.Phase = PhaseSubmitting })
		resp, err := f.registrar.Login(ctx, dto.LoginRequest{Email: s.Email, Password: s.Password})
		if err != nil {
			return Outcome{}, &NetworkError{Mode: ModeSignIn, Err: err}
		}
		return Outcome{Mode: ModeSignIn, User: resp.User, Token: resp.Token}, nil
	}

	if s.Image == nil {
		return Outcome{}, &ImageEncodingError{Message: MsgPhotoRequired}
	}
	photo, err := f.encoder.Encode(ctx, s.Image)
	if err != nil {
		return Outcome{}, &ImageEncodingError{Message: MsgPhotoFailed, Err: err}
	}

	f.update(func(st *State) { st.Phase = PhaseSubmitting })
	resp, err := f.registrar.Register(ctx, regclient.RegisterRequest{
		Username: s.Username,
		Email:    s.Email,
		Password: s.Password,
		Photo:    photo,
	})
	if err != nil {
		return Outcome{}, &NetworkError{Mode: ModeSignUp, Err: err}
	}

	f.remember(ctx, s, resp.User)
	return Outcome{Mode: ModeSignUp, User: resp.User}, nil
}

// remember stores the new profile. A cache failure never fails the sign-up.
func (f *Form) remember(ctx context.Context, s State, user dto.UserResponse) {
	if f.cache == nil {
		return
	}
	name := user.Username
	if name == "" {
		name = s.Username
	}
	p := &profilecache.StoredProfile{
		DisplayName:         name,
		LocalImageReference: s.Image.String(),
		RemoteImageURL:      user.ProfilePhoto,
	}
	if err := f.cache.InsertLatest(ctx, p); err != nil {
		f.logger.Warn("failed to cache profile", "error", err)
	}
}

// LastProfile reads the most recently created profile, nil when there is none
// or no cache is configured.
func (f *Form) LastProfile(ctx context.Context) (*profilecache.StoredProfile, error) {
	if f.cache == nil {
		return nil, nil
	}
	return f.cache.GetLatest(ctx)
}

// PrefillFromLastProfile copies the cached display name into an empty form.
func (f *Form) PrefillFromLastProfile(ctx context.Context) (*profilecache.StoredProfile, error) {
	p, err := f.LastProfile(ctx)
	if err != nil || p == nil {
		return p, err
	}
	f.update(func(s *State) {
		if s.Mode == ModeSignUp && s.Username == "" && s.Email == "" {
			s.Username = p.DisplayName
		}
	})
	return p, nil
}
