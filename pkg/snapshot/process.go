package snapshot

import (
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/LinqLover/pbi-crash-tests/pkg/winsys"
)

// Process tracks the visible top-level windows of one launched process.
type Process struct {
	sys  winsys.System
	proc winsys.Process

	// Windows holds the visible, non-degenerate windows found by the last
	// Update, ordered as enumerated. The slice is replaced wholesale on every
	// Update; stale handles are never reused.
	Windows []*Window
}

// NewProcess creates a snapshot holder for the given process and takes the
// first window inventory.
func NewProcess(sys winsys.System, proc winsys.Process) (*Process, error) {
	p := &Process{sys: sys, proc: proc}
	if err := p.Update(); err != nil {
		return nil, err
	}
	return p, nil
}

// Update re-enumerates all top-level windows owned by the tracked process and
// keeps those that are visible and have a non-degenerate rectangle.
func (p *Process) Update() error {
	handles, err := p.sys.TopLevelWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate windows: %w", err)
	}

	var windows []*Window
	for _, handle := range handles {
		pid, err := p.sys.WindowProcessID(handle)
		if err != nil || pid != p.proc.PID() {
			continue
		}
		w := NewWindow(p.sys, handle)
		if !w.Visible || w.Rect.Empty() {
			continue
		}
		windows = append(windows, w)
	}
	p.Windows = windows
	return nil
}

// SaveArtifacts writes a screenshot per currently visible window into dir,
// creating the directory and any missing parents. Visibility is re-checked
// live at save time. Windows without an obtainable screenshot are skipped.
func (p *Process) SaveArtifacts(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	for i, w := range p.Windows {
		if !p.sys.WindowVisible(w.Handle()) {
			continue
		}
		shot := w.Screenshot()
		if shot == nil {
			continue
		}
		name := fmt.Sprintf("%d_%s.png", i, sanitizeTitle(w.Title))
		if err := writePNG(fs, filepath.Join(dir, name), shot); err != nil {
			return fmt.Errorf("failed to save screenshot of window %d (%s): %w", i, w.Title, err)
		}
		logrus.WithField("file", name).Debug("Saved window screenshot")
	}
	return nil
}

func writePNG(fs afero.Fs, path string, img image.Image) error {
	file, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

// sanitizeTitle reduces a window title to characters that are safe in file
// names, collapsing every run of other characters into a single underscore.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == ' ':
			b.WriteRune(r)
		default:
			if !strings.HasSuffix(b.String(), "_") {
				b.WriteRune('_')
			}
		}
	}
	return strings.TrimSpace(b.String())
}
