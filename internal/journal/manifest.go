package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the session.yaml sidecar recording a session's identity, kept
// alongside its artifacts so the index can be rebuilt by scanning the
// filesystem without re-deriving slugs or dates.
type Manifest struct {
	Workspace         string `yaml:"workspace"`
	DateDir           string `yaml:"date_dir"`
	Slug              string `yaml:"slug"`
	IntegrationBranch string `yaml:"integration_branch,omitempty"`
	Status            string `yaml:"status"`
}

// WriteManifest writes the sidecar into the session directory.
func (s *Store) WriteManifest(m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal session manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "session.yaml"), data, 0o644)
}

// ReadManifest loads the sidecar from the session directory.
func (s *Store) ReadManifest() (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(s.dir, "session.yaml"))
	if err != nil {
		return m, fmt.Errorf("read session manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("unmarshal session manifest: %w", err)
	}
	return m, nil
}
