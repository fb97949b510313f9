package api

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	config := `executable: pbi/PBIDesktop.exe
reports:
  - reports/Report1.pbix
icons_dir: failure-icons
`
	if err := afero.WriteFile(fs, "suite.yaml", []byte(config), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loaded, err := Load(fs, "suite.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := &Config{
		Executable: "pbi/PBIDesktop.exe",
		Reports:    []string{"reports/Report1.pbix"},
		IconsDir:   "failure-icons",
	}
	if diff := cmp.Diff(expected, loaded); diff != "" {
		t.Errorf("unexpected config: %s", diff)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "suite.yaml", []byte("executable: x\nunknown_field: y\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(fs, "suite.yaml"); err == nil {
		t.Error("expected an error for unknown config fields")
	}
}

func TestValidate(t *testing.T) {
	var testCases = []struct {
		id             string
		config         Config
		expectedValid  bool
		expectedErrors []string
	}{
		{
			id:            "complete config",
			config:        Config{Executable: "x", Reports: []string{"a.pbix"}, IconsDir: "icons"},
			expectedValid: true,
		},
		{
			id:            "reports_dir instead of reports",
			config:        Config{Executable: "x", ReportsDir: "reports", IconsDir: "icons"},
			expectedValid: true,
		},
		{
			id:             "empty config aggregates every problem",
			config:         Config{},
			expectedErrors: []string{"executable", "reports", "icons_dir"},
		},
		{
			id:             "missing icons",
			config:         Config{Executable: "x", Reports: []string{"a.pbix"}},
			expectedErrors: []string{"icons_dir"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectedValid {
				if err != nil {
					t.Fatalf("expected a valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			for _, fragment := range tc.expectedErrors {
				if !strings.Contains(err.Error(), fragment) {
					t.Errorf("expected the error to mention %q, got: %v", fragment, err)
				}
			}
		})
	}
}

func TestResolveReports(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"reports/b.pbix", "reports/a.PBIX", "reports/notes.txt"} {
		if err := afero.WriteFile(fs, name, []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	config := &Config{Executable: "x", ReportsDir: "reports", Reports: []string{"extra/c.pbix"}, IconsDir: "icons"}

	reports, err := config.ResolveReports(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"extra/c.pbix", "reports/a.PBIX", "reports/b.pbix"}
	if diff := cmp.Diff(expected, reports); diff != "" {
		t.Errorf("unexpected reports: %s", diff)
	}
}

func TestResolveReportsFailsOnEmptySuite(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("reports", 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if _, err := (&Config{ReportsDir: "reports"}).ResolveReports(fs); err == nil {
		t.Error("expected an error for a suite without reports")
	}
}
