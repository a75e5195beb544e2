package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/ldc/pkg/ldc/history"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

func TestHistoryCommands(t *testing.T) {
	e := isolate(t)
	root := writeTree(t, map[string]string{"a.txt": "hello"})

	stdout, stderr, err := execute(t, "history")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No history entries found.")

	_, _, err = execute(t, "--no-encrypt", "-o", t.TempDir(), root)
	require.NoError(t, err)

	stdout, _, err = execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ENTRIES")
	assert.Contains(t, stdout, filepath.Base(root))

	store, err := history.Open(e.history)
	require.NoError(t, err)
	records, err := store.List(0)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, records, 1)

	stdout, _, err = execute(t, "history", "show", records[0].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, stdout, "ID:        "+records[0].ID)
	assert.Contains(t, stdout, "Masked:    no")

	_, _, err = execute(t, "history", "show", "zzzz")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, stderr, err = execute(t, "history", "prune", "--older-than", "1d")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Removed 0 history records older than 1 days.")
}

func TestHistoryPrune_InvalidAge(t *testing.T) {
	e := isolate(t)

	_, _, err := execute(t, "history", "prune", "--older-than", "soon")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.NoFileExists(t, e.logPath)
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30d", 30 * 24 * time.Hour, false},
		{"12h", 12 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"0d", 0, true},
		{"-1h", 0, true},
		{"xd", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAge(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "90 days", formatAge(90*24*time.Hour))
	assert.Equal(t, "12h0m0s", formatAge(12*time.Hour))
}
