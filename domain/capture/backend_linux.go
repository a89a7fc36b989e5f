//go:build linux

package capture

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "image/png"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	kscreenshot "github.com/kbinani/screenshot"
	vscreenshot "github.com/vova616/screenshot"
)

const scrotTimeout = 2 * time.Second

// platformBackends lists the Linux capture strategies in preference
// order: the shared-memory X11 grab, the portable screenshot library,
// and a scrot subprocess as last resort. All three share one X
// connection for window lookup.
func platformBackends(logger *slog.Logger) []Backend {
	finder, err := newX11Finder(logger)
	if err != nil {
		logger.Debug("capture.x11_unavailable", "error", err)
		return nil
	}
	return []Backend{
		&x11ShmBackend{finder: finder},
		&portableBackend{finder: finder},
		&scrotBackend{finder: finder, logger: logger},
	}
}

// x11Finder resolves window titles to on-screen rectangles by walking
// the window manager's _NET_CLIENT_LIST.
type x11Finder struct {
	conn   *xgb.Conn
	root   xproto.Window
	logger *slog.Logger

	atomClientList xproto.Atom
	atomNetWmName  xproto.Atom
	atomUtf8       xproto.Atom
}

func newX11Finder(logger *slog.Logger) (*x11Finder, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X display: %w", err)
	}
	f := &x11Finder{
		conn:   conn,
		root:   xproto.Setup(conn).DefaultScreen(conn).Root,
		logger: logger,
	}
	if f.atomClientList, err = f.internAtom("_NET_CLIENT_LIST"); err != nil {
		conn.Close()
		return nil, err
	}
	if f.atomNetWmName, err = f.internAtom("_NET_WM_NAME"); err != nil {
		conn.Close()
		return nil, err
	}
	if f.atomUtf8, err = f.internAtom("UTF8_STRING"); err != nil {
		conn.Close()
		return nil, err
	}
	return f, nil
}

func (f *x11Finder) internAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(f.conn, true, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

// findWindow returns the screen rectangle of the first managed window
// whose title contains the substring, case-insensitively.
func (f *x11Finder) findWindow(title string) (image.Rectangle, bool) {
	prop, err := xproto.GetProperty(f.conn, false, f.root, f.atomClientList,
		xproto.AtomWindow, 0, 1<<20).Reply()
	if err != nil || prop == nil {
		return image.Rectangle{}, false
	}
	needle := strings.ToLower(title)
	for i := 0; i+4 <= len(prop.Value); i += 4 {
		win := xproto.Window(xgb.Get32(prop.Value[i:]))
		name, ok := f.windowName(win)
		if !ok || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		if rect, ok := f.windowRect(win); ok {
			return rect, true
		}
	}
	return image.Rectangle{}, false
}

func (f *x11Finder) windowName(win xproto.Window) (string, bool) {
	// _NET_WM_NAME (UTF-8) first, legacy WM_NAME as fallback
	if prop, err := xproto.GetProperty(f.conn, false, win, f.atomNetWmName,
		f.atomUtf8, 0, 1<<16).Reply(); err == nil && prop != nil && len(prop.Value) > 0 {
		return string(prop.Value), true
	}
	if prop, err := xproto.GetProperty(f.conn, false, win, xproto.AtomWmName,
		xproto.AtomString, 0, 1<<16).Reply(); err == nil && prop != nil && len(prop.Value) > 0 {
		return string(prop.Value), true
	}
	return "", false
}

func (f *x11Finder) windowRect(win xproto.Window) (image.Rectangle, bool) {
	geom, err := xproto.GetGeometry(f.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	// geometry is relative to the parent; translate to root coordinates
	trans, err := xproto.TranslateCoordinates(f.conn, win, f.root, 0, 0).Reply()
	if err != nil {
		return image.Rectangle{}, false
	}
	x, y := int(trans.DstX), int(trans.DstY)
	return image.Rect(x, y, x+int(geom.Width), y+int(geom.Height)), true
}

func (f *x11Finder) close() { f.conn.Close() }

// x11ShmBackend grabs through the vova616 screenshot library (XGetImage
// under the hood).
type x11ShmBackend struct {
	finder *x11Finder
}

func (b *x11ShmBackend) Name() string    { return "x11-shm" }
func (b *x11ShmBackend) Available() bool { return b.finder != nil }

func (b *x11ShmBackend) FindWindow(title string) (image.Rectangle, bool) {
	return b.finder.findWindow(title)
}

func (b *x11ShmBackend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	return vscreenshot.CaptureRect(rect)
}

func (b *x11ShmBackend) Close() error {
	b.finder.close()
	return nil
}

// portableBackend grabs through the kbinani screenshot library; lookup
// still goes through X.
type portableBackend struct {
	finder *x11Finder
}

func (b *portableBackend) Name() string    { return "portable" }
func (b *portableBackend) Available() bool { return b.finder != nil && kscreenshot.NumActiveDisplays() > 0 }

func (b *portableBackend) FindWindow(title string) (image.Rectangle, bool) {
	return b.finder.findWindow(title)
}

func (b *portableBackend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	return kscreenshot.CaptureRect(rect)
}

func (b *portableBackend) Close() error {
	b.finder.close()
	return nil
}

// scrotBackend shells out to scrot for the grab. The subprocess runs
// under a hard 2-second timeout so a wedged helper cannot stall the
// polling loop.
type scrotBackend struct {
	finder *x11Finder
	logger *slog.Logger
}

func (b *scrotBackend) Name() string { return "scrot" }

func (b *scrotBackend) Available() bool {
	if b.finder == nil {
		return false
	}
	_, err := exec.LookPath("scrot")
	return err == nil
}

func (b *scrotBackend) FindWindow(title string) (image.Rectangle, bool) {
	return b.finder.findWindow(title)
}

func (b *scrotBackend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	tmp, err := os.CreateTemp("", "lcdframe-*.png")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	area := fmt.Sprintf("%d,%d,%d,%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	cmd := exec.Command("scrot", "-o", "-a", area, path)
	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("scrot: %w", err)
		}
	case <-time.After(scrotTimeout):
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("scrot: timed out after %s", scrotTimeout)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("scrot: decode output: %w", err)
	}
	return toRGBA(img), nil
}

func (b *scrotBackend) Close() error {
	b.finder.close()
	return nil
}
