package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"soapctl/internal/keywords"
	"soapctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// LoadSuites loads every suite below path. A file path loads that file; a
// directory is searched recursively for *.yaml and *.yml files, in lexical
// order.
func LoadSuites(path string) ([]Suite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access scenario path %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".yaml", ".yml":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario directory %s: %w", path, err)
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	var suites []Suite
	for _, file := range files {
		suite, err := LoadSuiteFile(file)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	logging.Debug("Scenario", "Loaded %d suites from %s", len(suites), path)
	return suites, nil
}

// LoadSuiteFile loads and validates one suite file.
func LoadSuiteFile(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("failed to read suite %s: %w", path, err)
	}

	suite, err := ParseSuite(data)
	if err != nil {
		return Suite{}, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	if suite.Name == "" {
		base := filepath.Base(path)
		suite.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	suite.Source = path
	return suite, nil
}

// ParseSuite decodes a suite document. Unknown fields are rejected.
func ParseSuite(data []byte) (Suite, error) {
	var suite Suite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		if errors.Is(err, io.EOF) {
			return Suite{}, fmt.Errorf("empty suite")
		}
		return Suite{}, err
	}
	if err := Validate(suite); err != nil {
		return Suite{}, err
	}
	return suite, nil
}

// Validate checks the structure of a suite: named, uniquely named tests,
// and every step naming a keyword.
func Validate(suite Suite) error {
	if len(suite.Tests) == 0 {
		return fmt.Errorf("suite has no tests")
	}

	seen := make(map[string]bool, len(suite.Tests))
	for i, test := range suite.Tests {
		if strings.TrimSpace(test.Name) == "" {
			return fmt.Errorf("test #%d has no name", i+1)
		}
		key := keywords.Normalize(test.Name)
		if seen[key] {
			return fmt.Errorf("duplicate test name %q", test.Name)
		}
		seen[key] = true

		if len(test.Steps) == 0 {
			return fmt.Errorf("test %q has no steps", test.Name)
		}
		if err := validateSteps("test "+test.Name, test.Steps); err != nil {
			return err
		}
		if err := validateSteps("teardown of "+test.Name, test.Teardown); err != nil {
			return err
		}
	}

	if err := validateSteps("suite setup", suite.Setup); err != nil {
		return err
	}
	return validateSteps("suite teardown", suite.Teardown)
}

func validateSteps(where string, steps []Step) error {
	for i, step := range steps {
		if strings.TrimSpace(step.Keyword) == "" {
			return fmt.Errorf("%s: step #%d has no keyword", where, i+1)
		}
		if step.Retry != nil && step.Retry.Count < 0 {
			return fmt.Errorf("%s: step #%d has a negative retry count", where, i+1)
		}
	}
	return nil
}

// Filter returns the tests of suite selected by config: by name, then by
// include and exclude tags. Tags match under keyword name normalization.
func Filter(suite Suite, config Configuration) []Test {
	var out []Test
	for _, test := range suite.Tests {
		if config.Test != "" && keywords.Normalize(config.Test) != keywords.Normalize(test.Name) {
			continue
		}
		if len(config.Include) > 0 && !hasAnyTag(test, config.Include) {
			continue
		}
		if hasAnyTag(test, config.Exclude) {
			continue
		}
		out = append(out, test)
	}
	return out
}

func hasAnyTag(test Test, tags []string) bool {
	for _, want := range tags {
		for _, tag := range test.Tags {
			if keywords.Normalize(tag) == keywords.Normalize(want) {
				return true
			}
		}
	}
	return false
}
