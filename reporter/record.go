package reporter

// This file contains run recording functionality for saving the run's
// metadata next to its artifacts.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cheerchampion/e2email/model"
)

// MetadataFile is the name of the metadata file inside the run directory.
const MetadataFile = "run.json"

func writeRunMetadata(runDir string, meta *model.RunMetadata) error {
	if runDir == "" {
		return fmt.Errorf("run directory not available")
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}

	metadataPath := filepath.Join(runDir, MetadataFile)
	if err := os.WriteFile(metadataPath, metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	return nil
}
