package layer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry binds a layer to its GeoJSON file and zoom threshold.
type Entry struct {
	ID        ID     `yaml:"id" json:"id"`
	File      string `yaml:"file" json:"file"`
	Threshold `yaml:",inline"`
	// Unbounded drops the threshold entry entirely, making the layer zoom-independent.
	Unbounded bool `yaml:"unbounded,omitempty" json:"unbounded,omitempty"`
}

// Catalog is the set of static layers served by the map, in drawing order.
type Catalog struct {
	Layers []Entry `yaml:"layers" json:"layers"`
}

// DefaultCatalog returns the six stock layers with their default files and
// thresholds.
func DefaultCatalog() Catalog {
	th := DefaultThresholds()
	c := Catalog{Layers: make([]Entry, 0, len(All))}
	for _, id := range All {
		c.Layers = append(c.Layers, Entry{ID: id, File: string(id) + ".geojson", Threshold: th[id]})
	}
	return c
}

// LoadCatalog reads a YAML catalog from path. Layers left out of the file keep
// their defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes YAML catalog data and merges it over the defaults.
func ParseCatalog(data []byte) (Catalog, error) {
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}

	c := DefaultCatalog()
	seen := make(map[ID]bool, len(override.Layers))
	for _, e := range override.Layers {
		if !e.ID.Valid() {
			return Catalog{}, fmt.Errorf("catalog: unknown layer %q", e.ID)
		}
		if seen[e.ID] {
			return Catalog{}, fmt.Errorf("catalog: layer %q listed twice", e.ID)
		}
		seen[e.ID] = true
		for i := range c.Layers {
			if c.Layers[i].ID != e.ID {
				continue
			}
			if e.File == "" {
				e.File = c.Layers[i].File
			}
			if e.MinZoom == nil && e.MaxZoom == nil && !e.Unbounded {
				e.Threshold = c.Layers[i].Threshold
			}
			c.Layers[i] = e
		}
	}
	return c, c.Validate()
}

// Validate checks that every layer appears exactly once with a usable file.
func (c Catalog) Validate() error {
	var errs []string
	seen := make(map[ID]bool, len(c.Layers))
	for _, e := range c.Layers {
		if !e.ID.Valid() {
			errs = append(errs, fmt.Sprintf("unknown layer %q", e.ID))
			continue
		}
		if seen[e.ID] {
			errs = append(errs, fmt.Sprintf("layer %q listed twice", e.ID))
		}
		seen[e.ID] = true
		if e.File == "" {
			errs = append(errs, fmt.Sprintf("layer %q has no file", e.ID))
		}
		if e.MinZoom != nil && e.MaxZoom != nil && *e.MinZoom > *e.MaxZoom {
			errs = append(errs, fmt.Sprintf("layer %q: minZoom above maxZoom", e.ID))
		}
	}
	for _, id := range All {
		if !seen[id] {
			errs = append(errs, fmt.Sprintf("layer %q missing", id))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IDs returns the layers in drawing order.
func (c Catalog) IDs() []ID {
	ids := make([]ID, len(c.Layers))
	for i, e := range c.Layers {
		ids[i] = e.ID
	}
	return ids
}

// Files maps each layer to its GeoJSON file name.
func (c Catalog) Files() map[ID]string {
	files := make(map[ID]string, len(c.Layers))
	for _, e := range c.Layers {
		files[e.ID] = e.File
	}
	return files
}

// Thresholds builds the zoom table. Unbounded layers get no entry.
func (c Catalog) Thresholds() Thresholds {
	th := make(Thresholds, len(c.Layers))
	for _, e := range c.Layers {
		if e.Unbounded {
			continue
		}
		th[e.ID] = e.Threshold
	}
	return th
}
