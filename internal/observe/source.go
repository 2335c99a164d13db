// Package observe loads externally observed pricing facts. The fetch
// itself is out of scope for the engine; facts arrive as JSON or YAML
// files dropped by whatever scraper or operator produced them.
package observe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// factsFile is the on-disk shape of an observation dump.
type factsFile struct {
	Facts []model.ObservedFact `json:"facts" yaml:"facts"`
}

// LoadFacts reads observed facts from one file. The format is chosen by
// extension: .yaml/.yml parse as YAML, anything else as JSON.
func LoadFacts(path string) ([]model.ObservedFact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "observe: read %s", path)
	}

	var f factsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrapf(err, "observe: parse yaml %s", path)
		}
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrapf(err, "observe: parse json %s", path)
		}
	}

	for i, fact := range f.Facts {
		if fact.Carrier == "" || fact.PlanName == "" {
			return nil, eris.Errorf("observe: %s fact %d missing carrier or plan_name", path, i)
		}
	}
	return f.Facts, nil
}

// LoadAll reads several observation files concurrently. The limiter, if
// non-nil, paces file processing so a large source drop does not flood
// the downstream detection pass.
func LoadAll(ctx context.Context, paths []string, limiter *rate.Limiter) ([]model.ObservedFact, error) {
	var (
		mu  sync.Mutex
		all []model.ObservedFact
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return eris.Wrap(err, "observe: rate limit wait")
				}
			}

			facts, err := LoadFacts(path)
			if err != nil {
				return err
			}

			mu.Lock()
			all = append(all, facts...)
			mu.Unlock()

			zap.L().Debug("observe: loaded source",
				zap.String("path", path),
				zap.Int("facts", len(facts)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}
