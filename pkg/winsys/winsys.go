// Package winsys provides the narrow slice of the window system that report
// acceptance testing needs: enumerating top-level windows, reading their
// title, visibility and bounds, and painting their content into an image.
// The win32 implementation lives behind the System interface so that
// everything above it can run against a fake on any platform.
package winsys

import (
	"image"
)

// Handle identifies a top-level window. Handles are owned by the window
// system, not by us; they may become stale at any time and must never be
// reused across enumerations.
type Handle uintptr

// Rect is a window bounding rectangle in screen pixel coordinates.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

func (r Rect) Width() int {
	return int(r.Right - r.Left)
}

func (r Rect) Height() int {
	return int(r.Bottom - r.Top)
}

// Empty reports whether the rectangle has no area. Windows that are minimized
// or not yet laid out report degenerate rectangles.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// System is the read-only view of the window system.
type System interface {
	// TopLevelWindows returns the handles of all top-level windows currently
	// known to the window system, in z-order.
	TopLevelWindows() ([]Handle, error)
	// WindowProcessID returns the id of the process that owns the window.
	WindowProcessID(h Handle) (int, error)
	// WindowTitle returns the window's title text, or the empty string for
	// untitled windows and stale handles.
	WindowTitle(h Handle) string
	// WindowVisible reports whether the window is shown.
	WindowVisible(h Handle) bool
	// WindowRect returns the window's bounding rectangle.
	WindowRect(h Handle) (Rect, error)
	// CaptureWindow paints the window's content into a freshly allocated
	// image sized to the window's bounding rectangle. The paint is requested
	// from the window itself, so it succeeds even when the window is occluded.
	// Pixels outside a non-rectangular window's region are fully transparent.
	CaptureWindow(h Handle) (*image.RGBA, error)
}
