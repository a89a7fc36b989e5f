//go:build windows

package capture

// Windows capture backends. The GDI backend BitBlts the window's screen
// rectangle into a temporary top-down DIB and converts BGRA to RGBA; the
// portable backend delegates the grab to the kbinani screenshot library.
// Both locate windows through EnumWindows title matching.

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"syscall"
	"unicode/utf16"
	"unsafe"

	kscreenshot "github.com/kbinani/screenshot"
	"golang.org/x/sys/windows"
)

const (
	srccopy      = 0x00CC0020
	dibRGBColors = 0
	biRgb        = 0
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procGetWindowRect      = user32.NewProc("GetWindowRect")
	procIsWindowVisible    = user32.NewProc("IsWindowVisible")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetLastError       = kernel32.NewProc("GetLastError")
)

// bitmapInfoHeader matches the Win32 BITMAPINFOHEADER layout.
type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte // one RGBQUAD placeholder (unused for 32-bit)
}

type winRect struct {
	Left, Top, Right, Bottom int32
}

func platformBackends(logger *slog.Logger) []Backend {
	return []Backend{
		&gdiBackend{},
		&winPortableBackend{},
	}
}

// findWindowRect enumerates visible top-level windows and returns the
// rectangle of the first whose title contains the substring,
// case-insensitively.
func findWindowRect(title string) (image.Rectangle, bool) {
	needle := strings.ToLower(title)
	var found image.Rectangle
	var ok bool
	cb := syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
		vis, _, _ := procIsWindowVisible.Call(hwnd)
		if vis == 0 {
			return 1 // continue
		}
		const maxChars = 256
		buf := make([]uint16, maxChars)
		r, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if r == 0 {
			return 1
		}
		var end int
		for i, v := range buf {
			if v == 0 {
				end = i
				break
			}
		}
		if end == 0 {
			end = int(r)
		}
		name := strings.TrimSpace(string(utf16.Decode(buf[:end])))
		if name == "" || !strings.Contains(strings.ToLower(name), needle) {
			return 1
		}
		var rc winRect
		if res, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rc))); res == 0 {
			return 1
		}
		found = image.Rect(int(rc.Left), int(rc.Top), int(rc.Right), int(rc.Bottom))
		ok = true
		return 0 // stop enumeration
	})
	_, _, _ = procEnumWindows.Call(cb, 0)
	if !ok || found.Empty() {
		return image.Rectangle{}, false
	}
	return found, true
}

// gdiBackend captures through per-grab GDI allocations.
type gdiBackend struct{}

func (b *gdiBackend) Name() string    { return "gdi" }
func (b *gdiBackend) Available() bool { return user32.Load() == nil && gdi32.Load() == nil }

func (b *gdiBackend) FindWindow(title string) (image.Rectangle, bool) {
	return findWindowRect(title)
}

func (b *gdiBackend) Grab(r image.Rectangle) (*image.RGBA, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid rect %v", r)
	}

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("capture: GetDC failed winerr=%d", getLastError())
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleDC failed winerr=%d", getLastError())
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bitsPtr unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if bmp == 0 {
		return nil, fmt.Errorf("capture: CreateDIBSection failed winerr=%d", getLastError())
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) { // failure or GDI_ERROR
		return nil, fmt.Errorf("capture: SelectObject failed winerr=%d", getLastError())
	}

	ok, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), screenDC, uintptr(r.Min.X), uintptr(r.Min.Y), srccopy)
	if ok == 0 {
		return nil, fmt.Errorf("capture: BitBlt failed rect=%v winerr=%d", r, getLastError())
	}

	// Copy & convert BGRA in the DIB to RGBA in a Go heap slice.
	pixLen := w * h * 4
	src := (*[1 << 30]byte)(bitsPtr)[:pixLen:pixLen]
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < pixLen; i += 4 {
		bb := src[i+0]
		g := src[i+1]
		r8 := src[i+2]
		// src[i+3] alpha is undefined; force opaque
		dst.Pix[i+0] = r8
		dst.Pix[i+1] = g
		dst.Pix[i+2] = bb
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

func (b *gdiBackend) Close() error { return nil }

// winPortableBackend grabs through the kbinani screenshot library.
type winPortableBackend struct{}

func (b *winPortableBackend) Name() string    { return "portable" }
func (b *winPortableBackend) Available() bool { return kscreenshot.NumActiveDisplays() > 0 }

func (b *winPortableBackend) FindWindow(title string) (image.Rectangle, bool) {
	return findWindowRect(title)
}

func (b *winPortableBackend) Grab(rect image.Rectangle) (*image.RGBA, error) {
	return kscreenshot.CaptureRect(rect)
}

func (b *winPortableBackend) Close() error { return nil }

func getLastError() uint32 {
	v, _, _ := procGetLastError.Call()
	return uint32(v)
}
