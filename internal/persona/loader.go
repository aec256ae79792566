package persona

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level structure of a persona YAML file.
//
// Example:
//
//	personas:
//	  - id: K1
//	    name: Daniel Koch
//	    surname: Koch
//	    gender: male
//	    age: 38
//	    description: Sportlicher Familienvater, freundlich aber in Eile.
//	    voice: alloy
//	    speech_rate: 1.05
type File struct {
	Personas []Profile `yaml:"personas"`
}

// LoadFile reads a persona YAML file from disk and builds a [Registry].
func LoadFile(path string, opts ...Option) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persona: open %q: %w", path, err)
	}
	defer f.Close()

	reg, err := LoadFromReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("persona: load %q: %w", path, err)
	}
	return reg, nil
}

// LoadFromReader parses persona YAML from an [io.Reader] and builds a
// [Registry]. The file must contain at least one persona.
func LoadFromReader(r io.Reader, opts ...Option) (*Registry, error) {
	var pf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("persona: decode yaml: %w", err)
	}
	if len(pf.Personas) == 0 {
		return nil, fmt.Errorf("persona: file defines no personas")
	}
	return NewRegistry(pf.Personas, opts...)
}
