package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ldc/pkg/ldc/checksum"
	"github.com/jamesainslie/ldc/pkg/ldc/history"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/manifest"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

// env is an isolated home for one test.
type env struct {
	home    string
	logPath string
	history string
}

func isolate(t *testing.T) env {
	t.Helper()
	home := t.TempDir()
	e := env{
		home:    home,
		logPath: filepath.Join(home, "state", "ldc.log"),
		history: filepath.Join(home, "data", "history"),
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("LDC_LOGGING_PATH", e.logPath)
	t.Setenv("LDC_HISTORY_PATH", e.history)
	t.Setenv(passwordEnv, "")
	t.Cleanup(func() { _ = logging.Close() })
	return e
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestValidation(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	tests := []struct {
		name string
		args []string
	}{
		{"password and no-encrypt", []string{"--password", "pw", "--no-encrypt", missing}},
		{"neither password nor no-encrypt", []string{missing}},
		{"output and compare", []string{"--no-encrypt", "-o", missing, "-c", missing, missing}},
		{"show without password", []string{"show", missing}},
		{"watch with both", []string{"watch", "-p", "pw", "--no-encrypt", "-c", missing, missing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := isolate(t)

			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrConfiguration)

			// Rejected before logging or any other filesystem work.
			assert.NoFileExists(t, e.logPath)
		})
	}
}

func TestGenerateThenCompare(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	outDir := t.TempDir()

	stdout, _, err := execute(t, "--no-encrypt", "-o", outDir, root)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "*"+manifest.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Manifest saved to: "+matches[0]+"\n", stdout)

	list, err := manifest.Decode(matches[0], "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.txt", list[0].Path)
	assert.Equal(t, checksum.HashBytes([]byte("hello")), list[0].Digest)

	stdout, _, err = execute(t, "--no-encrypt", "-c", matches[0], root)
	require.NoError(t, err)
	assert.Equal(t, "No differences found compared to the provided manifest.\n", stdout)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("world"), 0o644))

	stdout, _, err = execute(t, "--no-encrypt", "-c", matches[0], root)
	require.NoError(t, err)
	assert.Equal(t, "Differences found:\nAdded files:\n + b.txt\nModified files:\n * a.txt\n", stdout)
}

func TestGenerate_Masked(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	outDir := t.TempDir()

	_, _, err := execute(t, "-p", "pw", "-o", outDir, root)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "*"+manifest.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	stdout, _, err := execute(t, "-p", "pw", "-c", matches[0], root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No differences found")

	// The manifest is checked before the directory is touched.
	missing := filepath.Join(t.TempDir(), "gone")
	_, _, err = execute(t, "-p", "wrong", "-c", matches[0], missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCorrupt)
}

func TestGenerate_PasswordFromEnv(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	outDir := t.TempDir()
	t.Setenv(passwordEnv, "pw")

	_, _, err := execute(t, "-o", outDir, root)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "*"+manifest.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	list, err := manifest.Decode(matches[0], "pw")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = manifest.Decode(matches[0], "")
	assert.ErrorIs(t, err, types.ErrCorrupt)
}

func TestGenerate_MissingDirectory(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "--no-encrypt", "-o", t.TempDir(), filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGenerate_IgnoreFlag(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello", "skip.me": "x"})
	outDir := t.TempDir()

	_, _, err := execute(t, "--no-encrypt", "-o", outDir, "--ignore", "skip.me", root)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(outDir, "*"+manifest.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	list, err := manifest.Decode(matches[0], "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, list.Paths())
}

func TestGenerate_JSONFormat(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	stdout, _, err := execute(t, "--no-encrypt", "-o", t.TempDir(), "-f", "json", root)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "saved", doc["mode"])
}

func TestGenerate_UnknownFormat(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	_, _, err := execute(t, "--no-encrypt", "-o", t.TempDir(), "-f", "xml", root)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestGenerate_RecordsHistoryOnce(t *testing.T) {
	e := isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})
	outDir := t.TempDir()

	for i := 0; i < 2; i++ {
		_, _, err := execute(t, "--no-encrypt", "-o", outDir, root)
		require.NoError(t, err)
	}

	store, err := history.Open(e.history)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	resolved, err := checksum.ResolveRoot(root)
	require.NoError(t, err)
	assert.Equal(t, resolved, records[0].Root)
	assert.Equal(t, 1, records[0].Entries)
	assert.False(t, records[0].Encrypted)
	assert.True(t, strings.HasSuffix(records[0].Name, manifest.Extension))
}

func TestGenerate_HistoryDisabled(t *testing.T) {
	e := isolate(t)
	t.Setenv("LDC_HISTORY_ENABLED", "false")
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	_, _, err := execute(t, "--no-encrypt", "-o", t.TempDir(), root)
	require.NoError(t, err)
	assert.NoDirExists(t, e.history)
}

func TestShow(t *testing.T) {
	isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello", "b.txt": "new"})
	outDir := t.TempDir()

	_, _, err := execute(t, "-p", "pw", "-o", outDir, root)
	require.NoError(t, err)
	matches, err := filepath.Glob(filepath.Join(outDir, "*"+manifest.Extension))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	stdout, _, err := execute(t, "show", "-p", "pw", matches[0])
	require.NoError(t, err)

	want := checksum.HashBytes([]byte("hello")) + "  a.txt\n" +
		checksum.HashBytes([]byte("new")) + "  b.txt\n"
	assert.Equal(t, want, stdout)
}

func TestShow_Missing(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "show", "--no-encrypt", filepath.Join(t.TempDir(), "none.comparator"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestVersion(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "ldc dev\n"))
}
