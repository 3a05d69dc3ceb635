package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Project describes the shared tree the coordinator guards. Loaded from an
// optional YAML manifest checked into the project root.
type Project struct {
	Name         string   `yaml:"name"`
	Root         string   `yaml:"root"`
	DefaultFocus []string `yaml:"default_focus"`
}

// LoadProject reads the project manifest at path. A missing file is not an
// error: the coordinator falls back to the current working directory.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultProject()
	}
	if err != nil {
		return nil, fmt.Errorf("read project manifest: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project manifest %s: %w", path, err)
	}
	if p.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve project root: %w", err)
		}
		p.Root = wd
	}
	return &p, nil
}

func defaultProject() (*Project, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	return &Project{Name: "workspace", Root: wd}, nil
}
