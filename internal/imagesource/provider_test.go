package imagesource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	resolved []*Reference
	denied   []string
	failed   []string
	closed   int
}

func (s *recordingSink) OnImageResolved(ref *Reference)   { s.resolved = append(s.resolved, ref) }
func (s *recordingSink) OnPermissionDenied(reason string) { s.denied = append(s.denied, reason) }
func (s *recordingSink) OnCaptureFailed(reason string)    { s.failed = append(s.failed, reason) }
func (s *recordingSink) CloseImagePicker()                { s.closed++ }

type fakePermissions struct {
	granted   bool
	answer    bool
	requested int
}

func (p *fakePermissions) Granted(context.Context) bool { return p.granted }

func (p *fakePermissions) Request(context.Context) (bool, error) {
	p.requested++
	return p.answer, nil
}

type fakeCamera struct {
	ok      bool
	write   bool
	err     error
	calls   int
	lastLoc *Location
}

func (c *fakeCamera) Capture(_ context.Context, loc *Location) (bool, error) {
	c.calls++
	c.lastLoc = loc
	if c.write {
		if err := os.WriteFile(loc.Path, []byte("jpeg"), 0o600); err != nil {
			return false, err
		}
	}
	return c.ok, c.err
}

type fakeGallery struct {
	ref *Reference
	err error
}

func (g *fakeGallery) Pick(context.Context) (*Reference, error) { return g.ref, g.err }

type failingLocations struct{}

func (failingLocations) NewLocation() (*Location, error) { return nil, errors.New("disk full") }

func newTestProvider(t *testing.T, perms *fakePermissions, cam *fakeCamera, gal *fakeGallery) (*Provider, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	p := NewProvider(ProviderDeps{
		Permissions: perms,
		Locations:   &DirLocations{Dir: t.TempDir()},
		Camera:      cam,
		Gallery:     gal,
	}, sink)
	return p, sink
}

func TestFromCamera_GrantedCaptureResolves(t *testing.T) {
	cam := &fakeCamera{ok: true, write: true}
	p, sink := newTestProvider(t, &fakePermissions{granted: true}, cam, nil)

	require.NoError(t, p.FromCamera(context.Background()))
	require.Len(t, sink.resolved, 1)
	assert.Equal(t, KindFile, sink.resolved[0].Kind)
	assert.Equal(t, cam.lastLoc.Path, sink.resolved[0].Path)
	assert.Empty(t, sink.failed)
}

func TestFromCamera_RequestsPermissionThenCaptures(t *testing.T) {
	perms := &fakePermissions{answer: true}
	cam := &fakeCamera{ok: true, write: true}
	p, sink := newTestProvider(t, perms, cam, nil)

	require.NoError(t, p.FromCamera(context.Background()))
	assert.Equal(t, 1, perms.requested)
	assert.Len(t, sink.resolved, 1)
}

func TestFromCamera_PermissionDenied(t *testing.T) {
	perms := &fakePermissions{answer: false}
	cam := &fakeCamera{ok: true, write: true}
	p, sink := newTestProvider(t, perms, cam, nil)

	err := p.FromCamera(context.Background())

	var denied *PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, []string{MsgPermissionRequired}, sink.denied)
	assert.Empty(t, sink.resolved)
	assert.Zero(t, cam.calls)
	assert.Equal(t, 1, sink.closed)
}

func TestFromCamera_CaptureFailureDiscardsLocation(t *testing.T) {
	cases := []struct {
		name string
		cam  *fakeCamera
	}{
		{"reported failure", &fakeCamera{ok: false, write: true}},
		{"capture error", &fakeCamera{ok: true, write: true, err: errors.New("device busy")}},
		{"no file written", &fakeCamera{ok: true, write: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, sink := newTestProvider(t, &fakePermissions{granted: true}, tc.cam, nil)

			err := p.FromCamera(context.Background())

			var failed *CaptureFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, []string{MsgCaptureFailed}, sink.failed)
			assert.Empty(t, sink.resolved)
			_, statErr := os.Stat(tc.cam.lastLoc.Path)
			assert.True(t, os.IsNotExist(statErr), "temp location should be removed")
		})
	}
}

func TestFromCamera_LocationFailure(t *testing.T) {
	sink := &recordingSink{}
	cam := &fakeCamera{ok: true, write: true}
	p := NewProvider(ProviderDeps{
		Permissions: &fakePermissions{granted: true},
		Locations:   failingLocations{},
		Camera:      cam,
	}, sink)

	err := p.FromCamera(context.Background())

	var failed *CaptureFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, []string{MsgLocationFailed}, sink.failed)
	assert.Zero(t, cam.calls)
}

func TestFromGallery(t *testing.T) {
	t.Run("picked", func(t *testing.T) {
		ref := FileReference("/tmp/cat.png")
		p, sink := newTestProvider(t, nil, nil, &fakeGallery{ref: ref})

		require.NoError(t, p.FromGallery(context.Background()))
		assert.Equal(t, []*Reference{ref}, sink.resolved)
	})

	t.Run("cancelled", func(t *testing.T) {
		p, sink := newTestProvider(t, nil, nil, &fakeGallery{})

		require.NoError(t, p.FromGallery(context.Background()))
		assert.Empty(t, sink.resolved)
		assert.Empty(t, sink.failed)
		assert.Empty(t, sink.denied)
		assert.Equal(t, 1, sink.closed)
	})
}

func TestFromEmoji(t *testing.T) {
	p, sink := newTestProvider(t, nil, nil, nil)

	require.NoError(t, p.FromEmoji("🤩"))
	require.Len(t, sink.resolved, 1)
	assert.Equal(t, KindEmoji, sink.resolved[0].Kind)
	assert.Equal(t, "🤩", sink.resolved[0].Glyph)
}

func TestFromEmoji_Unknown(t *testing.T) {
	p, sink := newTestProvider(t, nil, nil, nil)

	assert.ErrorIs(t, p.FromEmoji("🦀"), ErrUnknownEmoji)
	assert.Empty(t, sink.resolved)
}

func TestDirLocations_Name(t *testing.T) {
	dir := t.TempDir()
	locs := &DirLocations{Dir: dir, Now: func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	}}

	loc, err := locs.NewLocation()
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(loc.Path))
	assert.Regexp(t, `^JPEG_20240309_140507_.*\.jpg$`, filepath.Base(loc.Path))

	require.NoError(t, loc.Discard())
	require.NoError(t, loc.Discard())
}

func TestReferenceRoundTrip(t *testing.T) {
	for _, ref := range []*Reference{FileReference("/data/pics/a b.jpg"), EmojiReference("👍")} {
		got := ParseReference(ref.String())
		require.NotNil(t, got)
		assert.Equal(t, ref.Kind, got.Kind)
		assert.Equal(t, ref.Glyph, got.Glyph)
		if ref.Kind == KindFile {
			assert.Equal(t, filepath.Clean(ref.Path), filepath.Clean(got.Path))
		}
	}
	assert.Nil(t, ParseReference("content://media/1"))
}
