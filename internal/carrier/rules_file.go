package carrier

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// rulesFile is the on-disk shape of a carrier rules override.
type rulesFile struct {
	Carriers []model.CarrierRule  `yaml:"carriers"`
	Groups   []model.CarrierGroup `yaml:"groups"`
}

// LoadRegistry builds a Registry from a YAML rules file. An empty path
// returns the built-in defaults.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "carrier: read rules file %s", path)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "carrier: parse rules file %s", path)
	}
	if len(f.Carriers) == 0 {
		return nil, eris.Errorf("carrier: rules file %s declares no carriers", path)
	}

	reg, err := NewRegistry(f.Carriers, f.Groups)
	if err != nil {
		return nil, eris.Wrapf(err, "carrier: rules file %s", path)
	}

	zap.L().Info("carrier: loaded rules file",
		zap.String("path", path),
		zap.Int("carriers", len(f.Carriers)),
		zap.Int("groups", len(f.Groups)),
	)
	return reg, nil
}
