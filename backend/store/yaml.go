package store

import (
	"bytes"
	"fmt"
	"os"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads a catalog file of the form
//
//	roommates:
//	  - name: Aarav
//	    cleanliness: 4
//	    ...
//	housing:
//	  - name: Parkside Apartments
//	    ...
func LoadYAML(path string) (compass.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return compass.Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes and validates a catalog document. Unknown keys are rejected.
func ParseYAML(raw []byte) (compass.Catalog, error) {
	var c compass.Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return compass.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range c.Housing {
		t, err := compass.ParseHousingType(string(c.Housing[i].Type))
		if err != nil {
			return compass.Catalog{}, fmt.Errorf("listing %q: %w", c.Housing[i].Name, err)
		}
		c.Housing[i].Type = t
	}
	if err := c.Validate(); err != nil {
		return compass.Catalog{}, err
	}
	return c, nil
}
