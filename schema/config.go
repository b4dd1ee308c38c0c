package schema

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the YAML description of a decode: the streamed classes, the
// branches to read, and the TObject paths whose headers should be retained.
type Config struct {
	Classes       map[string][]Node `yaml:"classes"`
	Branches      []Node            `yaml:"branches"`
	RetainTObject []string          `yaml:"retain_tobject,omitempty"`
}

// LoadConfig parses a YAML config document.
func LoadConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("schema config: %w", err)
	}
	for _, b := range c.Branches {
		if b.Name == "" || b.TypeName == "" {
			return nil, fmt.Errorf("schema config: branch entries need both name and type")
		}
	}
	return &c, nil
}

// Registry builds a registry holding the config's classes and retention
// opt-ins.  logger may be nil.
func (c *Config) Registry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for name, members := range c.Classes {
		r.AddClass(name, members)
	}
	for _, path := range c.RetainTObject {
		r.RetainTObject(path)
	}
	return r
}

// Branch returns the branch node with the given name.
func (c *Config) Branch(name string) (Node, bool) {
	for _, b := range c.Branches {
		if b.Name == name {
			return b, true
		}
	}
	return Node{}, false
}
