package capture

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	found    bool
	rect     image.Rectangle
	grab     *image.RGBA
	grabErr  error
	closed   bool
	grabbed  int
	searched int
}

func (f *fakeBackend) Name() string    { return "fake" }
func (f *fakeBackend) Available() bool { return true }

func (f *fakeBackend) FindWindow(string) (image.Rectangle, bool) {
	f.searched++
	return f.rect, f.found
}

func (f *fakeBackend) Grab(image.Rectangle) (*image.RGBA, error) {
	f.grabbed++
	return f.grab, f.grabErr
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSourceCapture_WindowMissing(t *testing.T) {
	b := &fakeBackend{found: false}
	s := newSourceWithBackend(b, "Nonexistent", 320, 240, 1.0, testLogger())

	img, ok := s.Capture()
	assert.False(t, ok)
	assert.Nil(t, img)
	assert.Zero(t, b.grabbed, "grab must not run without a located window")
}

func TestSourceCapture_GrabFailureIsNotFound(t *testing.T) {
	b := &fakeBackend{
		found:   true,
		rect:    image.Rect(0, 0, 640, 480),
		grabErr: errors.New("transient platform failure"),
	}
	s := newSourceWithBackend(b, "Target", 320, 240, 1.0, testLogger())

	_, ok := s.Capture()
	assert.False(t, ok)
}

func TestSourceCapture_ScalesToOutput(t *testing.T) {
	b := &fakeBackend{
		found: true,
		rect:  image.Rect(100, 100, 740, 580),
		grab:  image.NewRGBA(image.Rect(0, 0, 640, 480)),
	}
	s := newSourceWithBackend(b, "Target", 320, 240, 1.0, testLogger())

	img, ok := s.Capture()
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
}

func TestSourceClose_ReleasesBackend(t *testing.T) {
	b := &fakeBackend{}
	s := newSourceWithBackend(b, "Target", 320, 240, 1.0, testLogger())
	require.NoError(t, s.Close())
	assert.True(t, b.closed)
}
