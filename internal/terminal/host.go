package terminal

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/imagesource"
	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/profileform"
)

const helpText = `Commands:
  set <username|email|password|confirm> <value>
  mode                 switch between sign-up and sign-in
  camera | gallery     pick a profile photo
  emoji [glyph|index]  pick an emoji avatar (no argument lists them)
  cancel               close the photo picker
  dismiss              dismiss the current alert
  submit               create the profile (or sign in)
  show                 print the form
  last                 print the last profile created here
  help | quit
`

// Host maps terminal commands onto a profile form and prints its state.
type Host struct {
	console  *Console
	form     *profileform.Form
	provider *imagesource.Provider
	logger   *slog.Logger

	submits   sync.WaitGroup
	succeeded chan profileform.Outcome
}

func NewHost(console *Console, form *profileform.Form, provider *imagesource.Provider, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		console:   console,
		form:      form,
		provider:  provider,
		logger:    logger,
		succeeded: make(chan profileform.Outcome, 1),
	}
}

// Run reads commands until quit, end of input, a successful submission or
// ctx cancellation. An in-flight submission is always waited for.
func (h *Host) Run(ctx context.Context) error {
	cancel := h.form.Subscribe(newRenderer(h.console).render)
	defer cancel()
	defer h.submits.Wait()

	if p, err := h.form.PrefillFromLastProfile(ctx); err != nil {
		h.logger.Warn("failed to read last profile", "error", err)
	} else if p != nil {
		h.console.Printf("Welcome back, %s.\n", p.DisplayName)
	}
	h.console.Printf("Type 'help' for commands.\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.succeeded:
			return nil
		case line, ok := <-h.console.Lines():
			if !ok {
				return nil
			}
			if quit := h.dispatch(ctx, line); quit {
				return nil
			}
		}
	}
}

func (h *Host) dispatch(ctx context.Context, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "help", "?":
		h.console.Printf("%s", helpText)
	case "quit", "exit":
		return true
	case "set":
		name, value, _ := strings.Cut(arg, " ")
		field, ok := profileform.ParseField(name)
		if !ok {
			h.console.Printf("unknown field %q\n", name)
			return false
		}
		if field != profileform.FieldPassword && field != profileform.FieldConfirmPassword {
			value = strings.TrimSpace(value)
		}
		h.form.SetField(field, value)
	case "mode":
		h.form.ToggleMode()
		h.console.Printf("Mode: %s\n", h.form.State().Mode)
	case "camera":
		if h.openPicker() {
			h.reportPick(h.provider.FromCamera(ctx))
		}
	case "gallery":
		if h.openPicker() {
			h.reportPick(h.provider.FromGallery(ctx))
		}
	case "emoji":
		h.pickEmoji(arg)
	case "cancel":
		h.provider.Cancel()
	case "dismiss":
		h.form.DismissAlert()
	case "submit":
		h.submit(ctx)
	case "show":
		h.show()
	case "last":
		h.last(ctx)
	default:
		h.console.Printf("unknown command %q, try 'help'\n", cmd)
	}
	return false
}

func (h *Host) openPicker() bool {
	h.form.RequestImageSelection()
	if !h.form.State().ImagePickerVisible {
		h.console.Printf("A profile photo is only used when signing up.\n")
		return false
	}
	return true
}

// reportPick logs failures the form does not already show as an alert.
func (h *Host) reportPick(err error) {
	var denied *imagesource.PermissionDeniedError
	var failed *imagesource.CaptureFailedError
	if err == nil || errors.As(err, &denied) || errors.As(err, &failed) {
		return
	}
	h.console.Printf("Could not pick image: %v\n", err)
}

func (h *Host) pickEmoji(arg string) {
	if arg == "" {
		h.form.OpenEmojiPicker()
		if !h.form.State().EmojiPickerVisible {
			h.console.Printf("A profile photo is only used when signing up.\n")
			return
		}
		for i, e := range imagesource.EmojiSet {
			h.console.Printf("%3d %s", i+1, e)
			if (i+1)%10 == 0 {
				h.console.Printf("\n")
			}
		}
		h.console.Printf("\nPick one with 'emoji <glyph>' or 'emoji <index>'.\n")
		return
	}
	if !h.openPicker() {
		return
	}
	glyph := arg
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(imagesource.EmojiSet) {
		glyph = imagesource.EmojiSet[n-1]
	}
	if err := h.provider.FromEmoji(glyph); err != nil {
		h.console.Printf("%v\n", err)
	}
}

func (h *Host) submit(ctx context.Context) {
	h.submits.Add(1)
	go func() {
		defer h.submits.Done()
		err := h.form.Submit(ctx, func(o profileform.Outcome) {
			if o.Mode == profileform.ModeSignIn {
				h.console.Printf("Signed in as %s (id %d).\n", o.User.Username, o.User.ID)
			} else {
				h.console.Printf("Profile created for %s (id %d), photo at %s\n", o.User.Username, o.User.ID, o.User.ProfilePhoto)
			}
			h.succeeded <- o
		})
		if errors.Is(err, profileform.ErrSubmitInFlight) {
			h.console.Printf("Still submitting, please wait.\n")
		}
	}()
}

func (h *Host) show() {
	s := h.form.State()
	image := "default avatar"
	if s.Image != nil {
		image = s.Image.String()
	}
	h.console.Printf("Mode:      %s\n", s.Mode)
	if s.Mode == profileform.ModeSignUp {
		h.console.Printf("Username:  %s\n", s.Username)
	}
	h.console.Printf("Email:     %s\n", s.Email)
	h.console.Printf("Password:  %s\n", mask(s.Password))
	if s.Mode == profileform.ModeSignUp {
		h.console.Printf("Confirm:   %s\n", mask(s.ConfirmPassword))
		h.console.Printf("Photo:     %s\n", image)
	}
	h.console.Printf("Status:    %s\n", s.Phase)
	if s.Alert != nil {
		h.console.Printf("Alert:     %s\n", s.Alert.Message)
	}
}

func (h *Host) last(ctx context.Context) {
	p, err := h.form.LastProfile(ctx)
	switch {
	case err != nil:
		h.console.Printf("Could not read last profile: %v\n", err)
	case p == nil:
		h.console.Printf("No profile created on this device yet.\n")
	default:
		h.console.Printf("%s, created %s, photo %s\n", p.DisplayName, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.RemoteImageURL)
	}
}

func mask(s string) string {
	return strings.Repeat("*", len([]rune(s)))
}
