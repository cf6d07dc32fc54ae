package cli

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (id TEXT PRIMARY KEY, name TEXT);
		INSERT INTO users VALUES ('u1', 'Ana');
		CREATE TABLE posts (id TEXT PRIMARY KEY, title TEXT, published INTEGER, user_id TEXT);
		INSERT INTO posts VALUES ('p1', 'Hello', 1, 'u1');
		INSERT INTO posts VALUES ('p2', 'Drafts', 0, 'u1');
	`)
	require.NoError(t, err)
	return path
}

func TestImport_TextOutput(t *testing.T) {
	db := seedSQLite(t)

	out, err := executeCommand(t,
		"import", "testdata/schemas",
		"--db", db,
		"--entity", "users",
		"--entity", "posts",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "users: 1 record(s)")
	assert.Contains(t, out, "posts: 2 record(s)")
	assert.Contains(t, out, `"name":"Ana"`)
}

func TestImport_JSONOutput(t *testing.T) {
	db := seedSQLite(t)

	out, err := executeCommand(t,
		"--format", "json",
		"import", "testdata/schemas",
		"--db", db,
		"--entity", "posts",
	)
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)

	data, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var result ImportResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, 2, result.Imported["posts"])
	require.Len(t, result.Records["posts"], 2)
	assert.Equal(t, "Hello", result.Records["posts"][0]["title"])
}

func TestImport_MissingDatabase(t *testing.T) {
	out, err := executeCommand(t,
		"import", "testdata/schemas",
		"--db", filepath.Join(t.TempDir(), "missing", "blog.db"),
		"--entity", "users",
	)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestImport_UndeclaredEntity(t *testing.T) {
	db := seedSQLite(t)

	out, err := executeCommand(t,
		"import", "testdata/schemas",
		"--db", db,
		"--entity", "tags",
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeImportFailed)
}
