package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is a playable class definition: its to-hit curve and the skills it
// starts with, by learned percentage.
//
// Precondition: ID must be non-empty after loading.
type Class struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Thac0  Thac0          `yaml:"thac0"`
	Skills map[string]int `yaml:"skills"`
}

// LoadClasses reads all .yaml files in dir and parses each as a Class.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed classes (may be empty slice) or a non-nil error.
func LoadClasses(dir string) ([]*Class, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	classes := make([]*Class, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var c Class
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing class file %s: %w", path, err)
		}
		if c.ID == "" {
			return nil, fmt.Errorf("class file %s: id must not be empty", path)
		}
		classes = append(classes, &c)
	}
	return classes, nil
}

// WithClasses returns a copy of r whose class table also contains every
// class in classes, overriding built-in entries with the same ID.
func (r *Rules) WithClasses(classes []*Class) *Rules {
	out := *r
	out.Classes = make(map[string]Thac0, len(r.Classes)+len(classes))
	for k, v := range r.Classes {
		out.Classes[k] = v
	}
	for _, c := range classes {
		out.Classes[c.ID] = c.Thac0
	}
	return &out
}
