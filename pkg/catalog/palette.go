package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed controls.yaml
var paletteYAML []byte

type paletteFile struct {
	Controls []ControlSpec `yaml:"controls"`
}

// Parse reads a palette file: a YAML document with a top-level "controls" list.
func Parse(data []byte) (*Catalog, error) {
	var file paletteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse palette: %w", err)
	}
	c := New()
	for _, spec := range file.Controls {
		def, err := Build(spec)
		if err != nil {
			return nil, err
		}
		c.Register(def)
	}
	return c, nil
}

// Default returns a fresh catalog with the built-in palette.
func Default() *Catalog {
	c, err := Parse(paletteYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin palette is invalid: %v", err))
	}
	return c
}
