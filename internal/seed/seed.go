// Package seed carries the default spare-part catalogue shipped with the
// service.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

type Catalogue struct {
	Categories []string          `yaml:"categories"`
	Backfill   map[string]string `yaml:"backfill"`
}

func Default() (Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Load reads a catalogue file. An empty path returns the embedded default.
func Load(path string) (Catalogue, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalogue{}, fmt.Errorf("parse catalogue: %w", err)
	}
	return c, nil
}
