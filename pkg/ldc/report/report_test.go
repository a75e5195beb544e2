package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/ldc/pkg/ldc/compare"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

func comparedResult() *Result {
	baseline := types.ChecksumList{
		{Path: "a.txt", Digest: "aaaa"},
		{Path: "gone.txt", Digest: "dddd"},
		{Path: "keep.txt", Digest: "kkkk"},
	}
	current := types.ChecksumList{
		{Path: "a.txt", Digest: "bbbb"},
		{Path: "keep.txt", Digest: "kkkk"},
		{Path: "new.txt", Digest: "nnnn"},
	}
	return &Result{
		Mode:         ModeCompared,
		Root:         "/data",
		ManifestPath: "old.comparator",
		Baseline:     baseline,
		Current:      current,
		Diff:         compare.Compare(baseline, current),
		Stats:        types.ScanStats{FilesHashed: 3, BytesHashed: 2048, Elapsed: 1500 * time.Millisecond},
	}
}

func savedResult() *Result {
	return &Result{
		Mode:         ModeSaved,
		Root:         "/data",
		ManifestPath: "/out/abc.comparator",
		Current:      types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}},
		Stats:        types.ScanStats{FilesHashed: 1, BytesHashed: 5},
	}
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "jsonl", "plain", "pretty", "unified", "yaml"}, Available())

	_, err := Get("xml")
	assert.ErrorIs(t, err, types.ErrConfiguration)

	r := NewRegistry()
	r.Register("plain", func() Formatter { return &PlainFormatter{} })
	assert.Equal(t, []string{"plain"}, r.Available())
}

func TestPlain_Saved(t *testing.T) {
	assert.Equal(t, "Manifest saved to: /out/abc.comparator\n", format(t, "plain", savedResult()))
}

func TestPlain_Compared(t *testing.T) {
	want := "Differences found:\n" +
		"Added files:\n + new.txt\n" +
		"Deleted files:\n - gone.txt\n" +
		"Modified files:\n * a.txt\n"
	assert.Equal(t, want, format(t, "plain", comparedResult()))
}

func TestPlain_OmitsEmptySections(t *testing.T) {
	baseline := types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}}
	current := types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}, {Path: "b.txt", Digest: "bbbb"}}
	r := &Result{Mode: ModeCompared, Diff: compare.Compare(baseline, current)}

	assert.Equal(t, "Differences found:\nAdded files:\n + b.txt\n", format(t, "plain", r))
}

func TestPlain_NoDifferences(t *testing.T) {
	list := types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}}
	r := &Result{Mode: ModeCompared, Diff: compare.Compare(list, list)}

	assert.Equal(t, "No differences found compared to the provided manifest.\n", format(t, "plain", r))
}

func TestPlain_ShownAndWarnings(t *testing.T) {
	r := &Result{
		Mode:     ModeShown,
		Baseline: types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}, {Path: "b.txt", Digest: "bbbb"}},
		Warnings: []string{"skipped secret.txt: permission denied"},
	}
	want := "aaaa  a.txt\nbbbb  b.txt\nWarning: skipped secret.txt: permission denied\n"
	assert.Equal(t, want, format(t, "plain", r))
}

func TestPretty(t *testing.T) {
	out := format(t, "pretty", comparedResult())

	assert.Contains(t, out, "/data")
	assert.Contains(t, out, "old.comparator")
	assert.Contains(t, out, "+ new.txt")
	assert.Contains(t, out, "- gone.txt")
	assert.Contains(t, out, "* a.txt")
	assert.Contains(t, out, "1 unchanged")
	assert.Contains(t, out, "2.0 KiB")

	assert.Less(t, strings.Index(out, "* a.txt"), strings.Index(out, "- gone.txt"), "changes are listed by path")
}

func TestPretty_Saved(t *testing.T) {
	r := savedResult()
	r.Warnings = []string{"skipped x"}
	out := format(t, "pretty", r)

	assert.Contains(t, out, "Manifest saved")
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "skipped x")

	r.Existing = true
	assert.Contains(t, format(t, "pretty", r), "already present")
}

func TestJSON(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(format(t, "json", comparedResult())), &doc))

	assert.Equal(t, "compared", doc["mode"])
	assert.Equal(t, "/data", doc["root"])
	assert.NotContains(t, doc, "entries")

	diff := doc["diff"].(map[string]interface{})
	assert.Equal(t, []interface{}{"new.txt"}, diff["added"])
	assert.Equal(t, []interface{}{"gone.txt"}, diff["deleted"])
	assert.Equal(t, []interface{}{"a.txt"}, diff["modified"])
	assert.Equal(t, float64(1), diff["unchanged"])

	changes := diff["changes"].([]interface{})
	require.Len(t, changes, 3)
	first := changes[0].(map[string]interface{})
	assert.Equal(t, "a.txt", first["path"])
	assert.Equal(t, "modified", first["kind"])
	assert.Equal(t, "aaaa", first["before"])
	assert.Equal(t, "bbbb", first["after"])
}

func TestJSON_NoDifferencesUsesEmptyLists(t *testing.T) {
	r := &Result{Mode: ModeCompared}
	out := format(t, "json", r)
	assert.Contains(t, out, `"added": []`)
	assert.Contains(t, out, `"changes": []`)
}

func TestJSONL(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(format(t, "jsonl", comparedResult())), "\n")
	require.Len(t, lines, 3)

	var c compare.Change
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &c))
	assert.Equal(t, compare.Change{Path: "gone.txt", Kind: compare.Deleted, Before: "dddd"}, c)

	lines = strings.Split(strings.TrimSpace(format(t, "jsonl", savedResult())), "\n")
	require.Len(t, lines, 1)
	var e types.ChecksumEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &e))
	assert.Equal(t, types.ChecksumEntry{Path: "a.txt", Digest: "aaaa"}, e)
}

func TestYAML(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(format(t, "yaml", savedResult())), &doc))

	assert.Equal(t, "saved", doc["mode"])
	assert.Equal(t, "/out/abc.comparator", doc["manifest"])
	entries := doc["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].(map[string]interface{})["path"])
	assert.Contains(t, doc, "stats")
}

func TestUnified(t *testing.T) {
	out := format(t, "unified", comparedResult())

	assert.True(t, strings.HasPrefix(out, "--- old.comparator\n+++ /data\n"), out)
	assert.Contains(t, out, "-aaaa  a.txt\n")
	assert.Contains(t, out, "+bbbb  a.txt\n")
	assert.Contains(t, out, "-dddd  gone.txt\n")
	assert.Contains(t, out, "+nnnn  new.txt\n")
	assert.Contains(t, out, " kkkk  keep.txt\n")
}

func TestUnified_Identical(t *testing.T) {
	list := types.ChecksumList{{Path: "a.txt", Digest: "aaaa"}}
	r := &Result{Mode: ModeCompared, Baseline: list, Current: list, Diff: compare.Compare(list, list)}
	assert.Empty(t, format(t, "unified", r))
}

func TestUnified_RequiresComparison(t *testing.T) {
	f, err := Get("unified")
	require.NoError(t, err)
	var buf bytes.Buffer
	assert.ErrorIs(t, f.Format(&buf, savedResult()), types.ErrConfiguration)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, ""},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), tt.in.String())
	}
}
