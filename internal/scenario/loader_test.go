package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weatherSuite = `
name: weather
variables:
  project: weather.xml
setup:
  - keyword: SoapUI Start Mock Service
    args: ["${project}", "WeatherMock"]
tests:
  - name: forecast
    tags: [smoke]
    timeout: 30s
    steps:
      - keyword: SoapUI Project
        args: ["${project}"]
      - keyword: SoapUI Set Project Property
        args: ["env=qa", "region=eu"]
      - name: run forecast
        keyword: SoapUI Run
        retry:
          count: 2
          delay: 1s
        expect:
          contains: ["env=qa"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseSuite(t *testing.T) {
	suite, err := ParseSuite([]byte(weatherSuite))
	require.NoError(t, err)

	assert.Equal(t, "weather", suite.Name)
	assert.Equal(t, "weather.xml", suite.Variables["project"])
	require.Len(t, suite.Setup, 1)
	require.Len(t, suite.Tests, 1)

	test := suite.Tests[0]
	assert.Equal(t, 30*time.Second, test.Timeout)
	assert.Equal(t, []string{"smoke"}, test.Tags)
	require.Len(t, test.Steps, 3)
	assert.Equal(t, []interface{}{"env=qa", "region=eu"}, test.Steps[1].Args)

	run := test.Steps[2]
	assert.Equal(t, "run forecast", run.Title())
	require.NotNil(t, run.Retry)
	assert.Equal(t, 2, run.Retry.Count)
	assert.Equal(t, time.Second, run.Retry.Delay)
	require.NotNil(t, run.Expect)
	assert.Equal(t, []string{"env=qa"}, run.Expect.Contains)
}

func TestParseSuite_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{"empty", "", "empty suite"},
		{"no tests", "name: x\n", "suite has no tests"},
		{"unknown field", "name: x\nsteps: []\ntests: []\n", "field steps not found"},
		{"unnamed test", "tests:\n  - steps:\n      - keyword: SoapUI Run\n", "test #1 has no name"},
		{"no steps", "tests:\n  - name: a\n", `test "a" has no steps`},
		{"duplicate test", "tests:\n  - name: A b\n    steps: [{keyword: SoapUI Run}]\n  - name: a_b\n    steps: [{keyword: SoapUI Run}]\n", `duplicate test name "a_b"`},
		{"step without keyword", "tests:\n  - name: a\n    steps: [{name: x}]\n", "test a: step #1 has no keyword"},
		{"negative retry", "tests:\n  - name: a\n    steps: [{keyword: SoapUI Run, retry: {count: -1}}]\n", "negative retry count"},
		{"teardown without keyword", "teardown: [{args: [x]}]\ntests:\n  - name: a\n    steps: [{keyword: SoapUI Run}]\n", "suite teardown: step #1 has no keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadSuites_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", weatherSuite)
	writeFile(t, dir, "nested/a.yml", "tests:\n  - name: a\n    steps: [{keyword: SoapUI Run}]\n")
	writeFile(t, dir, "notes.txt", "ignored")

	suites, err := LoadSuites(dir)
	require.NoError(t, err)
	require.Len(t, suites, 2)

	assert.Equal(t, "weather", suites[0].Name)
	assert.Equal(t, filepath.Join(dir, "b.yaml"), suites[0].Source)
	assert.Equal(t, "a", suites[1].Name, "name defaults to the file name")
}

func TestLoadSuites_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSuites(filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "failed to access scenario path")

	bad := writeFile(t, dir, "bad.yaml", "tests: [")
	_, err = LoadSuites(bad)
	assert.ErrorContains(t, err, "invalid suite "+bad)
}

func TestFilter(t *testing.T) {
	suite := Suite{Tests: []Test{
		{Name: "Login Works", Tags: []string{"smoke"}},
		{Name: "logout", Tags: []string{"smoke", "slow"}},
		{Name: "report"},
	}}
	names := func(tests []Test) []string {
		var out []string
		for _, t := range tests {
			out = append(out, t.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Login Works", "logout", "report"}, names(Filter(suite, Configuration{})))
	assert.Equal(t, []string{"Login Works"}, names(Filter(suite, Configuration{Test: "login_works"})))
	assert.Equal(t, []string{"Login Works", "logout"}, names(Filter(suite, Configuration{Include: []string{"SMOKE"}})))
	assert.Equal(t, []string{"Login Works", "report"}, names(Filter(suite, Configuration{Exclude: []string{"slow"}})))
	assert.Empty(t, Filter(suite, Configuration{Test: "nope"}))
}
