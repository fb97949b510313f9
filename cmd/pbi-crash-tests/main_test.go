package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/LinqLover/pbi-crash-tests/pkg/api"
)

func TestOptionsValidate(t *testing.T) {
	var testCases = []struct {
		id            string
		options       options
		expectedValid bool
	}{
		{
			id:            "config path alone is enough",
			options:       options{configPath: "suite.yaml", logLevel: "info"},
			expectedValid: true,
		},
		{
			id:            "flags alone are enough",
			options:       options{executable: "x", report: "a.pbix", iconsDir: "icons", logLevel: "info"},
			expectedValid: true,
		},
		{
			id:      "no config and no executable",
			options: options{report: "a.pbix", iconsDir: "icons", logLevel: "info"},
		},
		{
			id:      "report and reports-dir are exclusive",
			options: options{configPath: "suite.yaml", report: "a.pbix", reportsDir: "reports", logLevel: "info"},
		},
		{
			id:      "bogus log level",
			options: options{configPath: "suite.yaml", logLevel: "shouting"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			err := tc.options.Validate()
			if tc.expectedValid && err != nil {
				t.Errorf("expected valid options, got: %v", err)
			}
			if !tc.expectedValid && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestOptionsConfigMergesFlagOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := `executable: configured.exe
reports:
  - configured.pbix
icons_dir: configured-icons
`
	if err := afero.WriteFile(fs, "suite.yaml", []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	o := options{
		configPath:   "suite.yaml",
		report:       "override.pbix",
		iconsDir:     "override-icons",
		preLoadDelay: 20 * time.Second,
		logLevel:     "info",
	}
	config, err := o.config(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := &api.Config{
		Executable: "configured.exe",
		Reports:    []string{"override.pbix"},
		IconsDir:   "override-icons",
	}
	if diff := cmp.Diff(expected, config); diff != "" {
		t.Errorf("unexpected config: %s", diff)
	}
}
