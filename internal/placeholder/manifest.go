package placeholder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the externally supplied descriptor list, for callers that
// scan the source document themselves and feed the engines directly.
type Manifest struct {
	Overlays []Overlay `yaml:"overlays,omitempty"`
	Merges   []Merge   `yaml:"merges,omitempty"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveManifest writes the manifest to path. The compile pipeline emits one
// next to the rendered base PDF when --keep-temp is set, so a failed run
// can be replayed against the engines alone.
func SaveManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every descriptor and marker uniqueness across the run.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	check := func(d Descriptor) error {
		if err := Validate(d); err != nil {
			return err
		}
		if seen[d.Marker()] {
			return fmt.Errorf("duplicate marker %q", d.Marker())
		}
		seen[d.Marker()] = true
		return nil
	}

	for _, o := range m.Overlays {
		if err := check(o); err != nil {
			return err
		}
		for _, c := range o.Continuations {
			if seen[c.MarkerText] {
				return fmt.Errorf("duplicate marker %q", c.MarkerText)
			}
			seen[c.MarkerText] = true
		}
	}
	for _, mg := range m.Merges {
		if err := check(mg); err != nil {
			return err
		}
	}
	return nil
}
