package container

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// ConfigFile is the configuration file name inside a bundle.
const ConfigFile = "config.json"

// LoadSpec reads and minimally validates the bundle configuration.
func LoadSpec(bundle string) (*specs.Spec, error) {
	data, err := os.ReadFile(filepath.Join(bundle, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", bundle, err)
	}
	spec := new(specs.Spec)
	if err := json.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("bundle %s: decode %s: %w", bundle, ConfigFile, err)
	}
	if spec.Process == nil || len(spec.Process.Args) == 0 {
		return nil, fmt.Errorf("bundle %s: no process args in %s", bundle, ConfigFile)
	}
	if spec.Root == nil || spec.Root.Path == "" {
		return nil, fmt.Errorf("bundle %s: no root path in %s", bundle, ConfigFile)
	}
	return spec, nil
}
