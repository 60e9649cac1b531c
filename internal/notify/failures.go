package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type failuresPayload struct {
	Failures []string `json:"failures"`
}

// WriteFailures writes structured failure detail for the dispatcher (or an
// external notifier) to pick up.
func WriteFailures(path string, failures []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(failuresPayload{Failures: failures}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFailures reads a failure-details file in any of the accepted formats:
// a JSON list, a JSON object with a "failures" list, or plain text with one
// failure per line. Problems reading the file become placeholder entries so
// the alert still goes out.
func LoadFailures(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{fmt.Sprintf("(failures file not found: %s)", path)}
		}
		return []string{fmt.Sprintf("(unable to read failures file: %v)", err)}
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return []string{"(failures file empty)"}
	}

	var payload failuresPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil && payload.Failures != nil {
		return payload.Failures
	}
	var list []string
	if err := json.Unmarshal([]byte(content), &list); err == nil {
		return list
	}
	var anyList []any
	if err := json.Unmarshal([]byte(content), &anyList); err == nil {
		items := make([]string, 0, len(anyList))
		for _, item := range anyList {
			items = append(items, fmt.Sprint(item))
		}
		return items
	}

	lines := []string{}
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
