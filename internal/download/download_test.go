package download_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/voxrec/internal/download"
)

func TestDownloadWritesFile(t *testing.T) {
	dir := t.TempDir()
	var saved []string
	d := download.New(dir, nil)
	d.Saved = func(p string) { saved = append(saved, p) }

	require.NoError(t, d.Download(context.Background(), []byte("RIFF1234"), "recording.wav"))

	got, err := os.ReadFile(filepath.Join(dir, "recording.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF1234", string(got))
	assert.Equal(t, []string{filepath.Join(dir, "recording.wav")}, saved)
}

func TestDownloadNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	d := download.New(dir, nil)
	ctx := context.Background()

	require.NoError(t, d.Download(ctx, []byte("a"), "recording.wav"))
	require.NoError(t, d.Download(ctx, []byte("b"), "recording.wav"))
	require.NoError(t, d.Download(ctx, []byte("c"), "recording.wav"))

	for name, want := range map[string]string{
		"recording.wav":     "a",
		"recording (1).wav": "b",
		"recording (2).wav": "c",
	} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got), name)
	}
}

func TestDownloadLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, download.New(dir, nil).Download(context.Background(), []byte("x"), "recording.wav"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
	assert.Len(t, entries, 1)
}

func TestDownloadCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, download.New(dir, nil).Download(context.Background(), nil, "recording.wav"))
	_, err := os.Stat(filepath.Join(dir, "recording.wav"))
	assert.NoError(t, err)
}

func TestDownloadStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, download.New(dir, nil).Download(context.Background(), []byte("x"), "../../escape.wav"))
	_, err := os.Stat(filepath.Join(dir, "escape.wav"))
	assert.NoError(t, err)
}

func TestDownloadHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := download.New(t.TempDir(), nil).Download(ctx, []byte("x"), "recording.wav")
	assert.ErrorIs(t, err, context.Canceled)
}

// Feature: voxrec, Property 6: Candidate names are distinct and keep the extension
func TestCandidateNamesAreDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "base")
		ext := rapid.SampledFrom([]string{".wav", ".ogg", ""}).Draw(t, "ext")
		n := rapid.IntRange(1, 50).Draw(t, "n")

		seen := map[string]bool{}
		for i := 0; i <= n; i++ {
			c := download.Candidate(base+ext, i)
			if seen[c] {
				t.Fatalf("duplicate candidate %q", c)
			}
			seen[c] = true
			if !strings.HasSuffix(c, ext) || !strings.HasPrefix(c, base) {
				t.Fatalf("candidate %q lost base %q or ext %q", c, base, ext)
			}
		}
	})
}
