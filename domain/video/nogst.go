//go:build !gst

package video

import "log/slog"

// noDecoder is the stub used when the binary is built without the gst tag.
type noDecoder struct{}

func newPlatformDecoder(*slog.Logger) Decoder { return noDecoder{} }

func (noDecoder) Available() bool { return false }

func (noDecoder) Decode(string, int, int) (*Clip, error) {
	return nil, ErrUnavailable
}
