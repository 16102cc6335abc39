package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Crop: CropConfig{
			PaddingPts:          5,
			MinBorderPaddingPts: 10,
		},
		Toc: TocConfig{
			HeadingKeyword: "appendix",
		},
		Render: RenderConfig{
			Primary: []string{
				"soffice", "--headless", "--convert-to", "pdf", "--outdir", "{outdir}", "{input}",
			},
			Fallback: []string{
				"libreoffice", "--headless", "--convert-to", "pdf", "--outdir", "{outdir}", "{input}",
			},
			Attempts:       3,
			TimeoutSeconds: 300,
		},
	}
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# stitch configuration
# render.primary/fallback are command templates; {input} and {outdir} are
# replaced with the source document and the output directory.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
