package terminal

import (
	"sync"

	"github.com/ahmetcoskunkizilkaya/chatprofile/internal/profileform"
)

// renderer prints the parts of a state change a terminal user cares about:
// new alerts, the submitting spinner and picker sheets opening.
type renderer struct {
	console *Console

	mu   sync.Mutex
	prev profileform.State
}

func newRenderer(c *Console) *renderer {
	return &renderer{console: c}
}

func (r *renderer) render(s profileform.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.prev
	r.prev = s

	if s.Alert != nil && (prev.Alert == nil || prev.Alert.Message != s.Alert.Message) {
		r.console.Printf("! %s ('dismiss' to close)\n", s.Alert.Message)
	}
	if s.Submitting && !prev.Submitting {
		r.console.Printf("Submitting...\n")
	}
	if s.ImagePickerVisible && !prev.ImagePickerVisible && !s.EmojiPickerVisible {
		r.console.Printf("Choose a photo: camera, gallery or emoji ('cancel' to close).\n")
	}
}
