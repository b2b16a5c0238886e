package config

import (
	"time"
)

// SoapctlConfig is the top-level configuration structure for soapctl.
type SoapctlConfig struct {
	SoapUI    SoapUIConfig    `yaml:"soapui"`
	Server    ServerConfig    `yaml:"server"`
	Scenarios ScenarioConfig  `yaml:"scenarios"`
	Logging   LoggingSettings `yaml:"logging"`
}

// SoapUIConfig locates the SoapUI command line tools.
type SoapUIConfig struct {
	Home       string            `yaml:"home,omitempty"`       // SoapUI installation directory, e.g. "/opt/SoapUI-5.7.0"
	TestRunner string            `yaml:"testRunner,omitempty"` // Explicit path to testrunner.sh; defaults to <home>/bin/testrunner.sh
	MockRunner string            `yaml:"mockRunner,omitempty"` // Explicit path to mockservicerunner.sh; defaults to <home>/bin/mockservicerunner.sh
	Env        map[string]string `yaml:"env,omitempty"`        // Extra environment for the runner processes, e.g. JAVA_OPTS
	ExtraArgs  []string          `yaml:"extraArgs,omitempty"`  // Appended to every testrunner invocation before the project file

	// MockStartTimeout bounds how long a non-blocking mock service start waits
	// for the engine to report the service as started.
	MockStartTimeout time.Duration `yaml:"mockStartTimeout,omitempty"`
}

const (
	// TransportStdio is the standard I/O transport.
	TransportStdio = "stdio"
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP = "streamable-http"
	// TransportSSE is the legacy HTTP+SSE transport.
	TransportSSE = "sse"
)

// ServerConfig defines how the keyword server is exposed.
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`      // Host to bind to (default: localhost)
	Port      int    `yaml:"port,omitempty"`      // Port for streamable-http (default: 8095)
	Transport string `yaml:"transport,omitempty"` // "stdio", "streamable-http" or "sse"
}

// ScenarioConfig holds defaults for the run command.
type ScenarioConfig struct {
	Path       string `yaml:"path,omitempty"`
	Parallel   int    `yaml:"parallel,omitempty"`
	FailFast   bool   `yaml:"failFast,omitempty"`
	ReportPath string `yaml:"reportPath,omitempty"`
}

// LoggingSettings configures pkg/logging.
type LoggingSettings struct {
	Level string `yaml:"level,omitempty"`
}

// GetDefaultConfig returns the default configuration for soapctl.
func GetDefaultConfig() SoapctlConfig {
	return SoapctlConfig{
		SoapUI: SoapUIConfig{
			Home:             "${SOAPUI_HOME}",
			MockStartTimeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8095,
			Transport: TransportStdio,
		},
		Scenarios: ScenarioConfig{
			Path:     "scenarios",
			Parallel: 1,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// TestRunnerPath returns the testrunner script to execute.
func (c SoapUIConfig) TestRunnerPath() string {
	if c.TestRunner != "" {
		return c.TestRunner
	}
	return runnerScript(c.Home, "testrunner")
}

// MockRunnerPath returns the mockservicerunner script to execute.
func (c SoapUIConfig) MockRunnerPath() string {
	if c.MockRunner != "" {
		return c.MockRunner
	}
	return runnerScript(c.Home, "mockservicerunner")
}
