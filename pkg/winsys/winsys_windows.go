//go:build windows

package winsys

import (
	"fmt"
	"image"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowRgn             = user32.NewProc("GetWindowRgn")
	procPrintWindow              = user32.NewProc("PrintWindow")
	procGetDC                    = user32.NewProc("GetDC")
	procReleaseDC                = user32.NewProc("ReleaseDC")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procCreateRectRgn      = gdi32.NewProc("CreateRectRgn")
	procGetRegionData      = gdi32.NewProc("GetRegionData")
)

const (
	biRGB               = 0
	dibRGBColors        = 0
	pwRenderFullContent = 0x2

	rgnError = 0
	rgnNull  = 1
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type rgnDataHeader struct {
	Size    uint32
	Type    uint32
	Count   uint32
	RgnSize uint32
	Bound   Rect
}

// New returns a System backed by the win32 user32/gdi32 APIs.
func New() (System, error) {
	return nativeSystem{}, nil
}

type nativeSystem struct{}

// Window enumeration goes through a single package-level callback because
// syscall.NewCallback allocations are never released.
var (
	enumMu      sync.Mutex
	enumResults []Handle
	enumProc    = syscall.NewCallback(func(hwnd, lparam uintptr) uintptr {
		enumResults = append(enumResults, Handle(hwnd))
		return 1
	})
)

func (nativeSystem) TopLevelWindows() ([]Handle, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumResults = nil
	ret, _, err := procEnumWindows.Call(enumProc, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows failed: %w", err)
	}
	handles := make([]Handle, len(enumResults))
	copy(handles, enumResults)
	return handles, nil
}

func (nativeSystem) WindowProcessID(h Handle) (int, error) {
	var pid uint32
	ret, _, err := procGetWindowThreadProcessID.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if ret == 0 {
		return 0, fmt.Errorf("GetWindowThreadProcessId failed for window %#x: %w", uintptr(h), err)
	}
	return int(pid), nil
}

func (nativeSystem) WindowTitle(h Handle) string {
	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func (nativeSystem) WindowVisible(h Handle) bool {
	ret, _, _ := procIsWindowVisible.Call(uintptr(h))
	return ret != 0
}

func (nativeSystem) WindowRect(h Handle) (Rect, error) {
	var r Rect
	ret, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return Rect{}, fmt.Errorf("GetWindowRect failed for window %#x: %w", uintptr(h), err)
	}
	return r, nil
}

func (s nativeSystem) CaptureWindow(h Handle) (*image.RGBA, error) {
	rect, err := s.WindowRect(h)
	if err != nil {
		return nil, err
	}
	width, height := rect.Width(), rect.Height()
	if rect.Empty() {
		return nil, fmt.Errorf("window %#x has a degenerate rectangle %dx%d", uintptr(h), width, height)
	}

	screenDC, _, err := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("GetDC failed: %w", err)
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, err := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, fmt.Errorf("CreateCompatibleDC failed: %w", err)
	}
	defer procDeleteDC.Call(memDC)

	// Top-down 32bpp DIB sized exactly to the window rectangle.
	bmi := bitmapInfoHeader{
		Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
	}
	var bits unsafe.Pointer
	bmp, _, err := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bmi)), dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 {
		return nil, fmt.Errorf("CreateDIBSection failed: %w", err)
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	defer procSelectObject.Call(memDC, prev)

	// Ask the window to paint itself into our DC. Unlike a screen-region
	// copy this also works for occluded windows.
	ok, _, _ := procPrintWindow.Call(uintptr(h), memDC, pwRenderFullContent)
	if ok == 0 {
		return nil, fmt.Errorf("PrintWindow failed for window %#x", uintptr(h))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	src := unsafe.Slice((*byte)(bits), width*height*4)
	for i := 0; i < len(src); i += 4 {
		// BGRA to RGBA; PrintWindow leaves the alpha channel undefined.
		img.Pix[i] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i]
		img.Pix[i+3] = 0xff
	}

	if err := clipToWindowRegion(h, img); err != nil {
		return nil, err
	}
	return img, nil
}

// clipToWindowRegion makes every pixel outside a non-rectangular window's
// region fully transparent. Windows without a region are left untouched.
func clipToWindowRegion(h Handle, img *image.RGBA) error {
	rgn, _, err := procCreateRectRgn.Call(0, 0, 0, 0)
	if rgn == 0 {
		return fmt.Errorf("CreateRectRgn failed: %w", err)
	}
	defer procDeleteObject.Call(rgn)

	rgnType, _, _ := procGetWindowRgn.Call(uintptr(h), rgn)
	if rgnType == rgnError || rgnType == rgnNull {
		// No window region set, the window is plain rectangular.
		return nil
	}

	size, _, _ := procGetRegionData.Call(rgn, 0, 0)
	if size == 0 {
		return fmt.Errorf("GetRegionData failed to size region of window %#x", uintptr(h))
	}
	buf := make([]byte, size)
	ret, _, _ := procGetRegionData.Call(rgn, size, uintptr(unsafe.Pointer(&buf[0])))
	if ret == 0 {
		return fmt.Errorf("GetRegionData failed for window %#x", uintptr(h))
	}

	header := (*rgnDataHeader)(unsafe.Pointer(&buf[0]))
	rects := unsafe.Slice((*Rect)(unsafe.Pointer(&buf[unsafe.Sizeof(rgnDataHeader{})])), header.Count)

	width, height := img.Rect.Dx(), img.Rect.Dy()
	mask := make([]bool, width*height)
	for _, r := range rects {
		// Region rectangles are relative to the window's upper-left corner.
		for y := max(int(r.Top), 0); y < min(int(r.Bottom), height); y++ {
			for x := max(int(r.Left), 0); x < min(int(r.Right), width); x++ {
				mask[y*width+x] = true
			}
		}
	}
	for i, in := range mask {
		if !in {
			o := i * 4
			img.Pix[o] = 0
			img.Pix[o+1] = 0
			img.Pix[o+2] = 0
			img.Pix[o+3] = 0
		}
	}
	return nil
}
