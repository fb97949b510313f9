// Package api defines the suite configuration: which reports to test with
// which application binary and which failure icon library.
package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/yaml"
)

// Config describes a test suite. Policy knobs like delays and timeouts are
// command-line flags, not configuration; the config only names the content
// under test.
type Config struct {
	// Executable is the path of the application binary to launch per report.
	Executable string `json:"executable"`
	// Reports lists the report files under test.
	Reports []string `json:"reports,omitempty"`
	// ReportsDir, when set, is expanded to every report file directly inside
	// the directory and appended to Reports.
	ReportsDir string `json:"reports_dir,omitempty"`
	// IconsDir is the directory holding the failure icon library.
	IconsDir string `json:"icons_dir"`
}

// Load reads and parses a suite configuration file.
func Load(fs afero.Fs, path string) (*Config, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := &Config{}
	if err := yaml.UnmarshalStrict(raw, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// Validate aggregates every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Executable == "" {
		errs = append(errs, errors.New("executable must be set"))
	}
	if len(c.Reports) == 0 && c.ReportsDir == "" {
		errs = append(errs, errors.New("at least one of reports and reports_dir must be set"))
	}
	if c.IconsDir == "" {
		errs = append(errs, errors.New("icons_dir must be set"))
	}
	return utilerrors.NewAggregate(errs)
}

// ResolveReports returns the full, sorted list of report files, expanding
// ReportsDir to the report files it directly contains.
func (c *Config) ResolveReports(fs afero.Fs) ([]string, error) {
	reports := append([]string{}, c.Reports...)
	if c.ReportsDir != "" {
		entries, err := afero.ReadDir(fs, c.ReportsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read reports directory %s: %w", c.ReportsDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pbix") {
				continue
			}
			reports = append(reports, filepath.Join(c.ReportsDir, entry.Name()))
		}
	}
	if len(reports) == 0 {
		return nil, errors.New("the suite contains no report files")
	}
	sort.Strings(reports)
	return reports, nil
}
