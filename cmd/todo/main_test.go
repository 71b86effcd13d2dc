package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ostadtodo/internal/testutil/testserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2024-01-01"

// run executes the root command against dir and returns its stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--config-dir", dir, "--lang", "en", "--date", day}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// addedID extracts the id from "Added <id>: <text>".
func addedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 2, out)
	return strings.TrimSuffix(fields[1], ":")
}

func clientEnv(t *testing.T, apiURL, store string) string {
	t.Helper()
	t.Setenv("TODO_API_URL", apiURL)
	t.Setenv("TODO_STORE", store)
	t.Setenv("TODO_LANG", "en")
	t.Setenv("TODO_DEBUG", "false")
	return t.TempDir()
}

func TestRemoteWorkflow(t *testing.T) {
	srv := testserver.New(t)
	dir := clientEnv(t, srv.URL, "file")

	_, err := run(t, dir, "list")
	assert.ErrorIs(t, err, errLoggedOut)

	out, err := run(t, dir, "register", "ostad", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered ostad")

	out, err = run(t, dir, "login", "ostad", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ostad")
	assert.FileExists(t, filepath.Join(dir, "token.json"))

	out, err = run(t, dir, "add", "Grade", "exams")
	require.NoError(t, err)
	id := addedID(t, out)
	assert.Contains(t, out, "Grade exams")

	out, err = run(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, day+"  0% done")
	assert.Contains(t, out, "[ ] "+id)

	out, err = run(t, dir, "done", id)
	require.NoError(t, err)
	assert.Equal(t, "[x] Grade exams\n", out)

	out, err = run(t, dir, "progress")
	require.NoError(t, err)
	assert.Equal(t, "100%\n", out)

	_, err = run(t, dir, "edit", id, "Grade", "finals")
	require.NoError(t, err)
	out, err = run(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Grade finals")

	_, err = run(t, dir, "rm", "999")
	assert.ErrorContains(t, err, "no task 999")

	_, err = run(t, dir, "rm", id)
	require.NoError(t, err)
	out, err = run(t, dir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks.")

	_, err = run(t, dir, "logout")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "token.json"))
	_, err = run(t, dir, "list")
	assert.ErrorIs(t, err, errLoggedOut)
}

func TestLoginWithWrongPassword(t *testing.T) {
	srv := testserver.New(t)
	dir := clientEnv(t, srv.URL, "file")

	_, err := run(t, dir, "register", "ostad", "secret")
	require.NoError(t, err)
	_, err = run(t, dir, "login", "ostad", "wrong")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "token.json"))
}

func TestLocalWorkflow(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			dir := clientEnv(t, "http://127.0.0.1:1", store)

			out, err := run(t, dir, "--local", "add", "Office", "hours")
			require.NoError(t, err)
			first := addedID(t, out)
			_, err = run(t, dir, "--local", "add", "Plan", "lesson")
			require.NoError(t, err)

			_, err = run(t, dir, "--local", "done", first)
			require.NoError(t, err)
			out, err = run(t, dir, "--local", "progress")
			require.NoError(t, err)
			assert.Equal(t, "50%\n", out)

			out, err = run(t, dir, "--local", "list")
			require.NoError(t, err)
			assert.Contains(t, out, "[x] "+first)
			assert.Contains(t, out, "Plan lesson")

			_, err = run(t, dir, "--local", "add", " ")
			assert.Error(t, err)
		})
	}
}

func TestBadDate(t *testing.T) {
	dir := clientEnv(t, "http://127.0.0.1:1", "file")
	var out bytes.Buffer
	cmd := newRootCmd(&out, &out)
	cmd.SetArgs([]string{"--config-dir", dir, "--local", "--date", "2024-13-01", "list"})
	assert.Error(t, cmd.Execute())
}

func TestConfigInit(t *testing.T) {
	dir := clientEnv(t, "http://example.test:5000", "sqlite")

	out, err := run(t, dir, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "config.toml")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `api_url = "http://example.test:5000"`)
	assert.Contains(t, string(data), `store = "sqlite"`)

	_, err = run(t, dir, "config", "init")
	assert.ErrorIs(t, err, fs.ErrExist)

	out, err = run(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "store       sqlite")
}
