package soapui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

var (
	// Total TestCases: 3 (1 failed)
	summaryTestCasesRe = regexp.MustCompile(`Total TestCases:\s*(\d+)\s*\((\d+) failed\)`)
	// Finished running SoapUI testcase [Login], time taken: 12ms, status: FAILED
	finishedTestCaseRe = regexp.MustCompile(`Finished running SoapUI testcase \[(.+?)\].*status:\s*(\w+)`)
	// MockService [Weather] started on port [8088] at path [/mock]
	mockStartedRe = regexp.MustCompile(`(?i)started on port`)
)

// runSummary is what the runner learned from the console output.
type runSummary struct {
	found       bool
	total       int
	failed      int
	failedCases []string
}

// observe feeds one console line into the summary.
func (s *runSummary) observe(line string) {
	if m := summaryTestCasesRe.FindStringSubmatch(line); m != nil {
		s.found = true
		s.total, _ = strconv.Atoi(m[1])
		s.failed, _ = strconv.Atoi(m[2])
		return
	}
	if m := finishedTestCaseRe.FindStringSubmatch(line); m != nil {
		if strings.EqualFold(m[2], "FAILED") {
			s.failedCases = append(s.failedCases, m[1])
		}
	}
}

// failedTests returns the failed test case names from the console output. If
// the summary counted more failures than were named, unnamed entries are
// filled in so the count stays accurate.
func (s *runSummary) failedTests() []string {
	failed := append([]string(nil), s.failedCases...)
	for i := len(failed); i < s.failed; i++ {
		failed = append(failed, fmt.Sprintf("failed test case #%d", i+1))
	}
	return failed
}

// junitReport holds the outcome parsed from TEST-*.xml files.
type junitReport struct {
	files  int
	total  int
	failed []string
}

// maxLineSize bounds how much of a single output line is kept. SOAP message
// dumps can be far longer; the remainder of such a line is dropped.
const maxLineSize = 64 * 1024

// readLines calls fn for every line of r until EOF. The reader is always
// consumed completely so a child process never blocks on a full pipe.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReaderSize(r, maxLineSize)
	for {
		line, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		text := string(line)
		for isPrefix {
			_, isPrefix, err = br.ReadLine()
			if err != nil {
				fn(text)
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}
		fn(text)
	}
}

// reportSnapshot records the modification times of the JUnit reports that
// already exist in dir.
func reportSnapshot(dir string) map[string]time.Time {
	snapshot := make(map[string]time.Time)
	if dir == "" {
		return snapshot
	}
	paths, _ := filepath.Glob(filepath.Join(dir, "TEST-*.xml"))
	for _, path := range paths {
		if info, err := os.Stat(path); err == nil {
			snapshot[path] = info.ModTime()
		}
	}
	return snapshot
}

// parseJUnitReports reads every TEST-*.xml below dir that is not listed
// unchanged in previous. Test cases with a <failure> or <error> child are
// reported as "<suite>: <case>".
func parseJUnitReports(dir string, previous map[string]time.Time) (junitReport, error) {
	var report junitReport
	if dir == "" {
		return report, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "TEST-*.xml"))
	if err != nil {
		return report, fmt.Errorf("failed to list reports in %s: %w", dir, err)
	}

	for _, path := range paths {
		if modTime, ok := previous[path]; ok {
			if info, err := os.Stat(path); err == nil && info.ModTime().Equal(modTime) {
				continue
			}
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromFile(path); err != nil {
			return report, fmt.Errorf("failed to parse report %s: %w", path, err)
		}
		report.files++

		for _, suite := range doc.FindElements("//testsuite") {
			suiteName := suite.SelectAttrValue("name", "")
			for _, tc := range suite.SelectElements("testcase") {
				report.total++
				if tc.SelectElement("failure") == nil && tc.SelectElement("error") == nil {
					continue
				}
				name := tc.SelectAttrValue("name", "")
				if suiteName != "" {
					name = suiteName + ": " + name
				}
				report.failed = append(report.failed, name)
			}
		}
	}

	return report, nil
}
