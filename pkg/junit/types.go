// Package junit holds jUnit XML types and serialization for test reports.
package junit

import (
	"encoding/xml"
)

// TestSuites holds a <testsuites/> list of test suites.
type TestSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []*TestSuite `xml:"testsuite"`
}

// TestSuite holds a <testsuite/> list of test results.
type TestSuite struct {
	XMLName    xml.Name             `xml:"testsuite"`
	Name       string               `xml:"name,attr"`
	NumTests   uint                 `xml:"tests,attr"`
	NumSkipped uint                 `xml:"skipped,attr"`
	NumFailed  uint                 `xml:"failures,attr"`
	Duration   float64              `xml:"time,attr"`
	Properties []*TestSuiteProperty `xml:"properties>property,omitempty"`
	TestCases  []*TestCase          `xml:"testcase"`
	Children   []*TestSuite         `xml:"testsuite"`
}

// TestSuiteProperty is a <property/> name/value pair on a test suite.
type TestSuiteProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// TestCase holds a single <testcase/> result.
type TestCase struct {
	XMLName       xml.Name       `xml:"testcase"`
	Name          string         `xml:"name,attr"`
	ClassName     string         `xml:"classname,attr,omitempty"`
	Duration      float64        `xml:"time,attr"`
	SkipMessage   *SkipMessage   `xml:"skipped,omitempty"`
	FailureOutput *FailureOutput `xml:"failure,omitempty"`
	SystemOut     string         `xml:"system-out,omitempty"`
	SystemErr     string         `xml:"system-err,omitempty"`
}

// SkipMessage holds a message explaining why a test was skipped.
type SkipMessage struct {
	Message string `xml:"message,attr"`
}

// FailureOutput holds the failure message and output of a failed test.
type FailureOutput struct {
	Message string `xml:"message,attr"`
	Output  string `xml:",chardata"`
}
