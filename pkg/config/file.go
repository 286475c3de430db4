package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the content of a YAML configuration file. Unset keys keep their zero
// value and are ignored when applied.
type File struct {
	Host        string `yaml:"host"`
	Port        *int   `yaml:"port"`
	Verbose     bool   `yaml:"verbose"`
	LogFile     string `yaml:"log"`
	MaxConns    int    `yaml:"max-conns"`
	Reply       string `yaml:"reply"`
	Message     string `yaml:"message"`
	Interactive bool   `yaml:"interactive"`
}

// LoadFile reads and parses the YAML configuration file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return ParseFile(data)
}

// ParseFile parses YAML configuration bytes.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	return &f, nil
}
