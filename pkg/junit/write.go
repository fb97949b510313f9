package junit

import (
	"encoding/xml"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Write serializes the suites to path as indented XML with the standard
// header, creating parent directories as needed.
func Write(fs afero.Fs, path string, suites *TestSuites) error {
	raw, err := xml.MarshalIndent(suites, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to marshal jUnit report: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, append([]byte(xml.Header), raw...), 0o644); err != nil {
		return fmt.Errorf("failed to write jUnit report to %s: %w", path, err)
	}
	return nil
}
