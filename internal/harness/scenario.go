package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quiltdb/quilt/internal/query"
)

// Scenario defines a conformance test scenario: entity schemas, seed data,
// and one query whose results are the scenario's observable output.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas lists paths to CUE entity declaration files.
	// Paths are relative to the scenario file location.
	Schemas []string `yaml:"schemas"`

	// Seed maps entity names to nested records inserted before the query.
	// Nested relationship values are normalized into their own tables.
	Seed map[string][]map[string]any `yaml:"seed"`

	// Query describes the read to execute after seeding.
	Query QuerySpec `yaml:"query"`

	// IDPrefix seeds the deterministic id generator so generated keys are
	// stable across runs. Defaults to "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// QuerySpec describes one repository read.
type QuerySpec struct {
	// Entity is the repository to query.
	Entity string `yaml:"entity"`

	// Where adds one equality predicate per field, AND-chained.
	Where map[string]any `yaml:"where,omitempty"`

	// OrWhere adds one equality predicate per field, OR-chained.
	OrWhere map[string]any `yaml:"or_where,omitempty"`

	// Order lists sort keys as "field:asc" or "field:desc".
	Order []string `yaml:"order,omitempty"`

	// With lists dotted relation paths to eager-load.
	With []string `yaml:"with,omitempty"`

	// Offset skips the first n matches.
	Offset int `yaml:"offset,omitempty"`

	// Limit caps the result count; zero means unlimited.
	Limit int `yaml:"limit,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Returns an error if
// the file doesn't exist, is malformed, contains unknown fields (typos), or
// is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file, resolving
// schema paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "querys:" vs "query:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, schemaPath := range scenario.Schemas {
		if !filepath.IsAbs(schemaPath) && basePath != "" {
			scenario.Schemas[i] = filepath.Join(basePath, schemaPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Schemas) == 0 {
		return fmt.Errorf("schemas list is required and must be non-empty")
	}
	for _, schemaPath := range s.Schemas {
		if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", schemaPath)
		}
	}

	if s.Query.Entity == "" {
		return fmt.Errorf("query.entity is required")
	}
	if s.Query.Offset < 0 {
		return fmt.Errorf("query.offset must be non-negative")
	}
	if s.Query.Limit < 0 {
		return fmt.Errorf("query.limit must be non-negative")
	}
	for i, key := range s.Query.Order {
		if _, _, err := parseOrder(key); err != nil {
			return fmt.Errorf("query.order[%d]: %w", i, err)
		}
	}

	return nil
}

// parseOrder splits a "field:direction" sort key; the direction defaults to
// ascending when omitted.
func parseOrder(key string) (string, query.Direction, error) {
	field, dir, found := strings.Cut(key, ":")
	if field == "" {
		return "", "", fmt.Errorf("empty sort field in %q", key)
	}
	if !found || dir == "" {
		return field, query.Asc, nil
	}
	switch dir {
	case "asc":
		return field, query.Asc, nil
	case "desc":
		return field, query.Desc, nil
	default:
		return "", "", fmt.Errorf("unknown sort direction %q", dir)
	}
}
