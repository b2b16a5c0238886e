package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd
var osLookupEnv = os.LookupEnv

var bracedVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

const (
	userConfigDir    = ".config/soapctl"
	projectConfigDir = ".soapctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the soapctl configuration by layering default, user, and project settings.
func LoadConfig() (SoapctlConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. Determine user-specific configuration path
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return SoapctlConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	// 3. Determine project-specific configuration path
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return SoapctlConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	return expandConfig(config), nil
}

// LoadConfigFile loads a single file on top of the defaults. It backs the
// --config flag, which bypasses the user and project layers.
func LoadConfigFile(path string) (SoapctlConfig, error) {
	fileConfig, err := loadConfigFromFile(path)
	if err != nil {
		return SoapctlConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return expandConfig(mergeConfigs(GetDefaultConfig(), fileConfig)), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a SoapctlConfig from a YAML file.
func loadConfigFromFile(filePath string) (SoapctlConfig, error) {
	var config SoapctlConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return SoapctlConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return SoapctlConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config.
func mergeConfigs(base, overlay SoapctlConfig) SoapctlConfig {
	merged := base

	// SoapUI settings (overlay overrides base)
	if overlay.SoapUI.Home != "" {
		merged.SoapUI.Home = overlay.SoapUI.Home
	}
	if overlay.SoapUI.TestRunner != "" {
		merged.SoapUI.TestRunner = overlay.SoapUI.TestRunner
	}
	if overlay.SoapUI.MockRunner != "" {
		merged.SoapUI.MockRunner = overlay.SoapUI.MockRunner
	}
	if overlay.SoapUI.MockStartTimeout != 0 {
		merged.SoapUI.MockStartTimeout = overlay.SoapUI.MockStartTimeout
	}
	if len(overlay.SoapUI.ExtraArgs) > 0 {
		merged.SoapUI.ExtraArgs = append([]string(nil), overlay.SoapUI.ExtraArgs...)
	}
	if len(overlay.SoapUI.Env) > 0 {
		env := make(map[string]string, len(merged.SoapUI.Env)+len(overlay.SoapUI.Env))
		for k, v := range merged.SoapUI.Env {
			env[k] = v
		}
		for k, v := range overlay.SoapUI.Env {
			env[k] = v
		}
		merged.SoapUI.Env = env
	}

	// Server settings
	if overlay.Server.Host != "" {
		merged.Server.Host = overlay.Server.Host
	}
	if overlay.Server.Port != 0 {
		merged.Server.Port = overlay.Server.Port
	}
	if overlay.Server.Transport != "" {
		merged.Server.Transport = overlay.Server.Transport
	}

	// Scenario settings
	if overlay.Scenarios.Path != "" {
		merged.Scenarios.Path = overlay.Scenarios.Path
	}
	if overlay.Scenarios.Parallel != 0 {
		merged.Scenarios.Parallel = overlay.Scenarios.Parallel
	}
	if overlay.Scenarios.ReportPath != "" {
		merged.Scenarios.ReportPath = overlay.Scenarios.ReportPath
	}
	merged.Scenarios.FailFast = merged.Scenarios.FailFast || overlay.Scenarios.FailFast

	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}

	return merged
}

// expandConfig resolves ${VAR} and ${VAR:-default} references in path-like values.
func expandConfig(c SoapctlConfig) SoapctlConfig {
	c.SoapUI.Home = ExpandEnv(c.SoapUI.Home)
	c.SoapUI.TestRunner = ExpandEnv(c.SoapUI.TestRunner)
	c.SoapUI.MockRunner = ExpandEnv(c.SoapUI.MockRunner)
	if len(c.SoapUI.Env) > 0 {
		env := make(map[string]string, len(c.SoapUI.Env))
		for k, v := range c.SoapUI.Env {
			env[k] = ExpandEnv(v)
		}
		c.SoapUI.Env = env
	}
	for i, arg := range c.SoapUI.ExtraArgs {
		c.SoapUI.ExtraArgs[i] = ExpandEnv(arg)
	}
	c.Scenarios.Path = ExpandEnv(c.Scenarios.Path)
	c.Scenarios.ReportPath = ExpandEnv(c.Scenarios.ReportPath)
	return c
}

// ExpandEnv replaces ${VAR} and ${VAR:-default} in s. Unset variables without
// a default expand to the empty string. A "$" outside ${...} is kept as is.
func ExpandEnv(s string) string {
	return ExpandBraced(s, func(key string) string {
		name, def, hasDefault := strings.Cut(key, ":-")
		if v, ok := osLookupEnv(name); ok && (v != "" || !hasDefault) {
			return v
		}
		return def
	})
}

// ExpandBraced replaces every ${key} in s with mapping(key). Bare $name and
// $$ are left untouched so passwords and endpoints keep their dollar signs.
func ExpandBraced(s string, mapping func(key string) string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return bracedVarRe.ReplaceAllStringFunc(s, func(ref string) string {
		return mapping(ref[2 : len(ref)-1])
	})
}

func runnerScript(home, name string) string {
	script := name + ".sh"
	if runtime.GOOS == "windows" {
		script = name + ".bat"
	}
	if home == "" {
		// Resolved through PATH.
		return script
	}
	return filepath.Join(home, "bin", script)
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
