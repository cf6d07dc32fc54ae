package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltdb/quilt/internal/query"
)

func writeScenarioFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func schemaPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("testdata/schemas/blog.cue")
	require.NoError(t, err)
	return abs
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/blog_with_user.yaml")
	require.NoError(t, err)

	assert.Equal(t, "blog-with-user", scenario.Name)
	assert.Equal(t, "posts", scenario.Query.Entity)
	assert.Equal(t, []string{"title:asc"}, scenario.Query.Order)
	assert.Equal(t, []string{"user"}, scenario.Query.With)

	require.Len(t, scenario.Schemas, 1)
	assert.FileExists(t, scenario.Schemas[0], "schema path resolves relative to the scenario file")

	require.Contains(t, scenario.Seed, "users")
	require.Len(t, scenario.Seed["users"], 1)
	assert.Equal(t, "Ana", scenario.Seed["users"][0]["name"])
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenarioFile(t, `
name: typo
schemas: [`+schemaPath(t)+`]
querys:
  entity: posts
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	schema := schemaPath(t)

	tests := []struct {
		name    string
		content string
		message string
	}{
		{
			name: "missing name",
			content: `
schemas: [` + schema + `]
query: {entity: posts}
`,
			message: "name is required",
		},
		{
			name: "missing schemas",
			content: `
name: s
query: {entity: posts}
`,
			message: "schemas list is required",
		},
		{
			name: "schema file not found",
			content: `
name: s
schemas: [/nonexistent/blog.cue]
query: {entity: posts}
`,
			message: "schema file not found",
		},
		{
			name: "missing query entity",
			content: `
name: s
schemas: [` + schema + `]
query: {limit: 1}
`,
			message: "query.entity is required",
		},
		{
			name: "bad sort direction",
			content: `
name: s
schemas: [` + schema + `]
query: {entity: posts, order: ["title:down"]}
`,
			message: `unknown sort direction "down"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		key   string
		field string
		dir   query.Direction
	}{
		{"title:asc", "title", query.Asc},
		{"title:desc", "title", query.Desc},
		{"title", "title", query.Asc},
	}

	for _, tt := range tests {
		field, dir, err := parseOrder(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.field, field)
		assert.Equal(t, tt.dir, dir)
	}

	_, _, err := parseOrder(":asc")
	assert.Error(t, err)
}
