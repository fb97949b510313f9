//go:build !windows

package winsys

import (
	"fmt"
	"runtime"
)

// New returns an error on platforms other than windows. The application under
// test is a windows desktop program; the rest of the module still builds and
// tests everywhere through fake System implementations.
func New() (System, error) {
	return nil, fmt.Errorf("window system access is not supported on %s", runtime.GOOS)
}
