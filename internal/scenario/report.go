package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SaveReport writes result as indented JSON to a timestamped file in dir and
// returns the file path.
func SaveReport(dir string, result *RunResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := result.StartTime.Format("20060102-150405")
	if result.StartTime.IsZero() {
		timestamp = time.Now().Format("20060102-150405")
	}
	path := filepath.Join(dir, fmt.Sprintf("soapctl-report-%s.json", timestamp))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}
