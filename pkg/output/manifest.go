package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// ManifestPath resolves where the manifest for a dataset lives.
// An empty filename derives "<dataset>.manifest.yaml" next to the dataset;
// a relative filename is placed in the dataset's directory.
func ManifestPath(outputPath, filename string) string {
	if filename == "" {
		base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
		return base + ".manifest.yaml"
	}
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(filepath.Dir(outputPath), filename)
}

// WriteManifest serializes the manifest as YAML, replacing any existing file.
func WriteManifest(path string, manifest *models.DatasetManifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("%w: marshal manifest: %w", utils.ErrOutput, err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create manifest directory '%s': %w", utils.ErrOutput, dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write manifest '%s': %w", utils.ErrOutput, path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*models.DatasetManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest '%s': %w", utils.ErrFilesystem, path, err)
	}
	var manifest models.DatasetManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse manifest '%s': %w", utils.ErrParsing, path, err)
	}
	return &manifest, nil
}
