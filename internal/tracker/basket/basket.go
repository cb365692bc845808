// Package basket loads the seed list of tracked securities: ordered symbols,
// display names, and last-known issued share counts. The issued sizes double
// as the static fallback when the supplementary lookup fails.
package basket

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultBasket []byte

type Entry struct {
	Symbol     string  `yaml:"symbol"`
	Name       string  `yaml:"name"`
	IssuedSize float64 `yaml:"issued_size,omitempty"`
}

type basketFile struct {
	Basket []Entry `yaml:"basket"`
}

// Load reads a basket YAML from path, or the embedded default basket when
// path is empty. Order in the file is the display order and is preserved.
func Load(path string) ([]Entry, error) {
	raw := defaultBasket
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read basket file: %w", err)
		}
		raw = b
	}

	var f basketFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse basket file: %w", err)
	}
	if len(f.Basket) == 0 {
		return nil, fmt.Errorf("basket is empty")
	}
	return f.Basket, nil
}

// IssuedSizes returns the static issued-share-count table keyed by symbol.
// Entries without a recorded size are omitted.
func IssuedSizes(entries []Entry) map[string]float64 {
	sizes := make(map[string]float64, len(entries))
	for _, e := range entries {
		if e.IssuedSize > 0 {
			sizes[e.Symbol] = e.IssuedSize
		}
	}
	return sizes
}
