package winsys

import (
	"fmt"
	"image"
)

// FakeWindow describes one window served by a FakeSystem.
type FakeWindow struct {
	Handle  Handle
	PID     int
	Title   string
	Visible bool
	Rect    Rect
	// Image is returned by CaptureWindow; a nil Image makes capture fail.
	Image *image.RGBA
}

// FakeSystem is an in-memory System for tests.
type FakeSystem struct {
	Windows []FakeWindow
	EnumErr error
	// CaptureCounts records how often each window was captured.
	CaptureCounts map[Handle]int
}

var _ System = &FakeSystem{}

func (f *FakeSystem) TopLevelWindows() ([]Handle, error) {
	if f.EnumErr != nil {
		return nil, f.EnumErr
	}
	handles := make([]Handle, 0, len(f.Windows))
	for _, w := range f.Windows {
		handles = append(handles, w.Handle)
	}
	return handles, nil
}

func (f *FakeSystem) find(h Handle) (*FakeWindow, error) {
	for i := range f.Windows {
		if f.Windows[i].Handle == h {
			return &f.Windows[i], nil
		}
	}
	return nil, fmt.Errorf("no such window: %#x", uintptr(h))
}

func (f *FakeSystem) WindowProcessID(h Handle) (int, error) {
	w, err := f.find(h)
	if err != nil {
		return 0, err
	}
	return w.PID, nil
}

func (f *FakeSystem) WindowTitle(h Handle) string {
	w, err := f.find(h)
	if err != nil {
		return ""
	}
	return w.Title
}

func (f *FakeSystem) WindowVisible(h Handle) bool {
	w, err := f.find(h)
	if err != nil {
		return false
	}
	return w.Visible
}

func (f *FakeSystem) WindowRect(h Handle) (Rect, error) {
	w, err := f.find(h)
	if err != nil {
		return Rect{}, err
	}
	return w.Rect, nil
}

func (f *FakeSystem) CaptureWindow(h Handle) (*image.RGBA, error) {
	if f.CaptureCounts == nil {
		f.CaptureCounts = map[Handle]int{}
	}
	f.CaptureCounts[h]++
	w, err := f.find(h)
	if err != nil {
		return nil, err
	}
	if w.Image == nil {
		return nil, fmt.Errorf("capture failed for window %#x", uintptr(h))
	}
	return w.Image, nil
}

// FakeProcess is an in-memory Process for tests.
type FakeProcess struct {
	Pid     int
	Exited  bool
	Killed  bool
	KillErr error
}

var _ Process = &FakeProcess{}

func (f *FakeProcess) PID() int {
	return f.Pid
}

func (f *FakeProcess) HasExited() (bool, error) {
	return f.Exited, nil
}

func (f *FakeProcess) Kill() error {
	if f.Exited {
		return nil
	}
	if f.KillErr != nil {
		return f.KillErr
	}
	f.Killed = true
	f.Exited = true
	return nil
}

// Launch records one FakeLauncher invocation.
type Launch struct {
	Executable string
	Args       []string
}

// FakeLauncher is an in-memory Launcher for tests.
type FakeLauncher struct {
	Process  *FakeProcess
	Err      error
	Launches []Launch
}

var _ Launcher = &FakeLauncher{}

func (f *FakeLauncher) Launch(executable string, args ...string) (Process, error) {
	f.Launches = append(f.Launches, Launch{Executable: executable, Args: args})
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Process, nil
}
