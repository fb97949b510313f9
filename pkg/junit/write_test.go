package junit

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/LinqLover/pbi-crash-tests/pkg/testhelper"
)

func TestWriteProducesStableXML(t *testing.T) {
	suites := &TestSuites{Suites: []*TestSuite{{
		Name:      "pbi-crash-tests",
		NumTests:  3,
		NumFailed: 2,
		Duration:  185.5,
		TestCases: []*TestCase{
			{Name: "Report1", Duration: 60.5},
			{Name: "Report2", Duration: 65, FailureOutput: &FailureOutput{Message: `failed: window 0 displays failure icon "unable-to-open-document" (similarity 0.0312)`}},
			{Name: "Report3", Duration: 60, FailureOutput: &FailureOutput{Message: "timed-out: timed out after 1m0s with no verdict"}},
		},
	}}}

	fs := afero.NewMemMapFs()
	if err := Write(fs, "reports/junit.xml", suites); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := afero.ReadFile(fs, "reports/junit.xml")
	if err != nil {
		t.Fatalf("failed to read written report: %v", err)
	}
	testhelper.CompareWithFixture(t, raw, testhelper.WithExtension(".xml"))
}

func TestWriteCreatesParentDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := Write(fs, "deeply/nested/dir/junit.xml", &TestSuites{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := afero.Exists(fs, "deeply/nested/dir/junit.xml"); !ok {
		t.Error("expected the report file to exist")
	}
}
