package cli

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/quiltdb/quilt/internal/repo"
	"github.com/quiltdb/quilt/internal/schema"
	"github.com/quiltdb/quilt/internal/store"
)

// LoadSeed reads a YAML seed file mapping entity names to lists of nested
// records:
//
//	users:
//	  - id: u1
//	    name: Ana
//	    posts:
//	      - title: Hello
func LoadSeed(path string) (map[string][]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed map[string][]map[string]any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return seed, nil
}

// ApplySeed inserts every entity's records through the normalizing write
// path, in sorted entity order so id generation is reproducible.
func ApplySeed(reg *schema.Registry, st *store.Store, seed map[string][]map[string]any, log *zap.Logger) error {
	entities := make([]string, 0, len(seed))
	for entity := range seed {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		r, err := repo.New(reg, st, entity, repo.WithLogger(log))
		if err != nil {
			return fmt.Errorf("seed entity: %w", err)
		}
		if err := r.Insert(seed[entity]); err != nil {
			return fmt.Errorf("seed %s: %w", entity, err)
		}
	}
	return nil
}
