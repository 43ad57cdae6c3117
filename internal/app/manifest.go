package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the media files of a batch run.
type Manifest struct {
	Inputs []ManifestEntry `json:"inputs" yaml:"inputs"`
}

// ManifestEntry is one file of a batch run. Relative paths are resolved
// against the manifest's directory.
type ManifestEntry struct {
	Path string `json:"path" yaml:"path"`
}

// Paths returns the resolved input paths in manifest order.
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		out = append(out, in.Path)
	}
	return out
}

// Validate rejects empty manifests and entries without a path.
func (m *Manifest) Validate() error {
	if len(m.Inputs) == 0 {
		return fmt.Errorf("manifest lists no inputs")
	}
	for i, in := range m.Inputs {
		if in.Path == "" {
			return fmt.Errorf("manifest entry %d has no path", i)
		}
	}
	return nil
}

// LoadManifest loads a batch manifest from a YAML or JSON file
func LoadManifest(filePath string) (*Manifest, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("manifest file does not exist: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest *Manifest
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		manifest, err = parseManifestYAML(data)
	case ".json":
		manifest, err = parseManifestJSON(data)
	default:
		// Try YAML first, then JSON
		if manifest, err = parseManifestYAML(data); err != nil {
			manifest, err = parseManifestJSON(data)
		}
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(filePath)
	for i, in := range manifest.Inputs {
		if in.Path != "" && !filepath.IsAbs(in.Path) {
			manifest.Inputs[i].Path = filepath.Join(base, in.Path)
		}
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func parseManifestYAML(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
	}
	return &manifest, nil
}

func parseManifestJSON(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse JSON manifest: %w", err)
	}
	return &manifest, nil
}

// GenerateExampleManifest writes an example manifest to outputFile
func GenerateExampleManifest(outputFile string) error {
	example := Manifest{
		Inputs: []ManifestEntry{
			{Path: "recordings/candidate-01.mp3"},
			{Path: "recordings/candidate-02.wav"},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write example manifest: %w", err)
	}

	return nil
}
