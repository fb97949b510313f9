// Package snapshot models the observable state of the application under test
// at one poll instant: the set of its visible top-level windows, their titles
// and bounds, and lazily captured screenshots.
package snapshot

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/LinqLover/pbi-crash-tests/pkg/icons"
	"github.com/LinqLover/pbi-crash-tests/pkg/imagematch"
	"github.com/LinqLover/pbi-crash-tests/pkg/winsys"
)

// noEvidenceSimilarity is reported when no screenshot is available or the
// icon cannot be searched for. It sits well above any match threshold.
const noEvidenceSimilarity = 1.0

// Window is a point-in-time capture of a single top-level window. Title,
// visibility and bounds are queried eagerly at construction; the screenshot
// is captured lazily, at most once.
type Window struct {
	handle winsys.Handle
	sys    winsys.System

	Title   string
	Visible bool
	Rect    winsys.Rect

	captured   bool
	screenshot *image.RGBA
}

// NewWindow queries the window system for the window's current title,
// visibility and bounding rectangle. The handle is a weak reference into
// window-system state and is not owned by the snapshot.
func NewWindow(sys winsys.System, handle winsys.Handle) *Window {
	w := &Window{
		handle:  handle,
		sys:     sys,
		Title:   sys.WindowTitle(handle),
		Visible: sys.WindowVisible(handle),
	}
	rect, err := sys.WindowRect(handle)
	if err != nil {
		// A window that vanished between enumeration and inspection keeps a
		// degenerate rectangle and gets filtered out by the process snapshot.
		logrus.WithError(err).WithField("window", handle).Debug("Could not determine window rectangle")
		return w
	}
	w.Rect = rect
	return w
}

// Handle exposes the underlying window handle for live re-checks.
func (w *Window) Handle() winsys.Handle {
	return w.handle
}

// Screenshot returns the window's content as an image, capturing it on first
// use. Capture failure is not an error: the screenshot is simply absent and
// callers must treat that as lack of evidence.
func (w *Window) Screenshot() *image.RGBA {
	if w.captured {
		return w.screenshot
	}
	w.captured = true
	img, err := w.sys.CaptureWindow(w.handle)
	if err != nil {
		logrus.WithError(err).WithField("title", w.Title).Debug("Could not capture window screenshot")
		return nil
	}
	w.screenshot = img
	return w.screenshot
}

// DisplaysIcon searches the window's screenshot for the given failure icon.
// Both images are downscaled before the template search. The similarity is
// returned for diagnostics whether or not it crosses the threshold; without
// a screenshot the result is (false, 1): cannot match, not a failure.
func (w *Window) DisplaysIcon(icon icons.Icon, threshold float64) (bool, float64) {
	shot := w.Screenshot()
	if shot == nil {
		return false, noEvidenceSimilarity
	}
	haystack := imagematch.Downscale(shot, imagematch.DownscaleFactor)
	needle := imagematch.Downscale(icon.Image, imagematch.DownscaleFactor)
	similarity, err := imagematch.Search(haystack, needle)
	if err != nil {
		// The icon does not fit into the window, e.g. a tiny splash screen.
		logrus.WithError(err).WithFields(logrus.Fields{"title": w.Title, "icon": icon.Name}).Debug("Could not search window for icon")
		return false, noEvidenceSimilarity
	}
	return similarity <= threshold, similarity
}
