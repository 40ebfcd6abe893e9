package loader

import (
	"os"

	"github.com/chunga/ict-nodeops/kernel/node"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type nodesYaml struct {
	Nodes map[string]node.Config `yaml:"nodes"`
}

// LoadNodes reads a YAML node-definition file and returns the configured
// nodes, keyed ids filled in from the map keys.
func LoadNodes(path string) ([]node.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read node definitions [%s]", path)
	}

	var doc nodesYaml
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "unable to parse node definitions [%s]", path)
	}

	configs := make([]node.Config, 0, len(doc.Nodes))
	for id, cfg := range doc.Nodes {
		if cfg.Id == "" {
			cfg.Id = id
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
