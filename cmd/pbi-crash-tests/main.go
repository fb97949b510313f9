package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/prow/pkg/interrupts"
	"sigs.k8s.io/prow/pkg/logrusutil"

	"github.com/LinqLover/pbi-crash-tests/pkg/api"
	"github.com/LinqLover/pbi-crash-tests/pkg/icons"
	"github.com/LinqLover/pbi-crash-tests/pkg/junit"
	"github.com/LinqLover/pbi-crash-tests/pkg/runner"
	"github.com/LinqLover/pbi-crash-tests/pkg/testcase"
	"github.com/LinqLover/pbi-crash-tests/pkg/winsys"
)

type options struct {
	configPath string
	executable string
	report     string
	reportsDir string
	iconsDir   string

	preLoadDelay time.Duration
	loadDelay    time.Duration
	timeout      time.Duration
	interval     time.Duration

	artifactsDir string
	junitPath    string
	logLevel     string
}

func gatherOptions() options {
	o := options{}
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to the suite configuration YAML. Optional when --executable and --report/--reports-dir are given.")
	fs.StringVar(&o.executable, "executable", "", "Path to the application binary. Overrides the configured one.")
	fs.StringVar(&o.report, "report", "", "Path to a single report file to test. Overrides the configured reports.")
	fs.StringVar(&o.reportsDir, "reports-dir", "", "Directory of report files to test. Overrides the configured reports.")
	fs.StringVar(&o.iconsDir, "icons-dir", "", "Directory of failure icon images. Overrides the configured one.")
	fs.DurationVar(&o.preLoadDelay, "pre-load-delay", 20*time.Second, "Grace period after launching the application before the first window check.")
	fs.DurationVar(&o.loadDelay, "load-delay", 15*time.Second, "Delay between a pass candidate and its confirming check.")
	fs.DurationVar(&o.timeout, "timeout", 5*time.Minute, "Wall-clock budget per test case. A case without a verdict by then is timed out.")
	fs.DurationVar(&o.interval, "interval", 5*time.Second, "Delay between window checks.")
	fs.StringVar(&o.artifactsDir, "artifacts-dir", "", "Directory to save window screenshots to, one subdirectory per report. Screenshots are not saved when unset.")
	fs.StringVar(&o.junitPath, "junit-path", "", "Path to write a jUnit XML report to. No report is written when unset.")
	fs.StringVar(&o.logLevel, "log-level", "info", "Level at which to log output.")
	if err := fs.Parse(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatalf("cannot parse args: '%s'", os.Args[1:])
	}
	return o
}

func (o *options) Validate() error {
	var errs []error
	if o.configPath == "" {
		if o.executable == "" {
			errs = append(errs, errors.New("--executable is required when no --config is given"))
		}
		if o.report == "" && o.reportsDir == "" {
			errs = append(errs, errors.New("one of --report and --reports-dir is required when no --config is given"))
		}
		if o.iconsDir == "" {
			errs = append(errs, errors.New("--icons-dir is required when no --config is given"))
		}
	}
	if o.report != "" && o.reportsDir != "" {
		errs = append(errs, errors.New("--report and --reports-dir are mutually exclusive"))
	}
	if _, err := logrus.ParseLevel(o.logLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid --log-level: %w", err))
	}
	return utilerrors.NewAggregate(errs)
}

// config merges the configuration file, when given, with flag overrides.
func (o *options) config(fs afero.Fs) (*api.Config, error) {
	config := &api.Config{}
	if o.configPath != "" {
		loaded, err := api.Load(fs, o.configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if o.executable != "" {
		config.Executable = o.executable
	}
	if o.report != "" {
		config.Reports = []string{o.report}
		config.ReportsDir = ""
	}
	if o.reportsDir != "" {
		config.Reports = nil
		config.ReportsDir = o.reportsDir
	}
	if o.iconsDir != "" {
		config.IconsDir = o.iconsDir
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite configuration: %w", err)
	}
	return config, nil
}

func main() {
	logrusutil.ComponentInit()
	o := gatherOptions()
	if err := o.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid options")
	}
	level, _ := logrus.ParseLevel(o.logLevel)
	logrus.SetLevel(level)

	fs := afero.NewOsFs()
	config, err := o.config(fs)
	if err != nil {
		logrus.WithError(err).Fatal("Could not resolve suite configuration")
	}
	reports, err := config.ResolveReports(fs)
	if err != nil {
		logrus.WithError(err).Fatal("Could not resolve report files")
	}
	library, err := icons.Load(fs, config.IconsDir)
	if err != nil {
		logrus.WithError(err).Fatal("Could not load failure icon library")
	}
	logrus.WithFields(logrus.Fields{"reports": len(reports), "icons": len(library)}).Info("Loaded test suite")

	sys, err := winsys.New()
	if err != nil {
		logrus.WithError(err).Fatal("Could not access the window system")
	}

	cases := make([]*testcase.TestCase, 0, len(reports))
	for _, report := range reports {
		cases = append(cases, testcase.New(testcase.Options{
			Report:       report,
			Executable:   config.Executable,
			PreLoadDelay: o.preLoadDelay,
			LoadDelay:    o.loadDelay,
			Icons:        library,
			System:       sys,
		}))
	}

	results := runner.New(runner.Options{
		Timeout:      o.timeout,
		Interval:     o.interval,
		ArtifactsDir: o.artifactsDir,
		Fs:           fs,
	}).Run(interrupts.Context(), cases)

	if o.junitPath != "" {
		if err := junit.Write(fs, o.junitPath, results.JUnit()); err != nil {
			logrus.WithError(err).Fatal("Could not write jUnit report")
		}
	}

	passed := 0
	for _, result := range results {
		if result.State == runner.StatePassed {
			passed++
		}
	}
	logrus.WithFields(logrus.Fields{"passed": passed, "total": len(results)}).Info("Test run finished")
	if len(results) != len(cases) || passed != len(results) {
		os.Exit(1)
	}
}
