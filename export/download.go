package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/designlab/overlay/report"
)

// Download writes the JSON payload to a file named by the caller,
// creating parent directories as needed.
func Download(path string, payload report.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal payload: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
