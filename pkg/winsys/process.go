package winsys

import (
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"

	gopsproc "github.com/shirou/gopsutil/v3/process"
)

// Process is a handle to a launched application process. The process is
// exclusively owned by whoever launched it until Kill is called.
type Process interface {
	PID() int
	// HasExited reports whether the process has terminated, for any reason.
	// A crash and a clean exit are not distinguished.
	HasExited() (bool, error)
	// Kill force-terminates the process. Calling Kill on a process that has
	// already exited is not an error.
	Kill() error
}

// Launcher starts application processes.
type Launcher interface {
	Launch(executable string, args ...string) (Process, error)
}

type execLauncher struct{}

// NewLauncher returns a Launcher backed by os/exec.
func NewLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Launch(executable string, args ...string) (Process, error) {
	cmd := exec.Command(executable, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", executable, err)
	}
	p := &execProcess{cmd: cmd}
	// Reap the child as soon as it exits so that liveness checks do not see
	// a zombie. The exit status is irrelevant, only the fact of exit is.
	go func() {
		_ = cmd.Wait()
		p.exited.Store(true)
	}()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	exited atomic.Bool
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) HasExited() (bool, error) {
	if p.exited.Load() {
		return true, nil
	}
	running, err := gopsproc.PidExists(int32(p.cmd.Process.Pid))
	if err != nil {
		return false, fmt.Errorf("failed to check process %d: %w", p.cmd.Process.Pid, err)
	}
	return !running, nil
}

func (p *execProcess) Kill() error {
	if p.exited.Load() {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil {
		if strings.Contains(err.Error(), "process already finished") {
			return nil
		}
		return fmt.Errorf("failed to kill process %d: %w", p.cmd.Process.Pid, err)
	}
	return nil
}
