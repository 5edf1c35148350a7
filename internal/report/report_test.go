package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandwatch/pkg/pipeline"
)

func TestWriterHeaderAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")

	w, err := NewWriter(path)
	require.NoError(t, err)

	out := &pipeline.Outcome{
		URL:             "https://newbank-verify.evil",
		Category:        pipeline.CategoryPhishing,
		Target:          "newbank",
		HasLogo:         true,
		FoundKnowledge:  true,
		DiscoveryBranch: "success_logo2brand",
		Runtime: pipeline.RuntimeBreakdown{
			Detector:  1500 * time.Millisecond,
			Discovery: 2 * time.Second,
		},
		Interaction: pipeline.InteractionFlags{NoVerification: true},
	}
	require.NoError(t, w.Append("sample-0001", out))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "folder\turl\t"))

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 10)
	assert.Equal(t, "sample-0001", fields[0])
	assert.Equal(t, "https://newbank-verify.evil", fields[1])
	assert.Equal(t, "1", fields[2])
	assert.Equal(t, "newbank", fields[3])
	assert.Equal(t, "true", fields[4])
	assert.Equal(t, "false", fields[5])
	assert.Equal(t, "true", fields[6])
	assert.Equal(t, "success_logo2brand", fields[7])
	assert.Equal(t, "1.5000|2.0000|0.0000|0.0000", fields[8])
	assert.Equal(t, "false|false|true", fields[9])
}

func TestWriterReopenSkipsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append("a", &pipeline.Outcome{URL: "https://a.example"}))
	require.NoError(t, w.Close())

	// Reopening an existing file must not write a second header.
	w, err = NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append("b", &pipeline.Outcome{URL: "https://b.example"}))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "folder\t"))
}

func TestProcessedFolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append("a", &pipeline.Outcome{URL: "https://a.example"}))
	require.NoError(t, w.Append("b", &pipeline.Outcome{URL: "https://b.example"}))
	require.NoError(t, w.Close())

	done, err := ProcessedFolders(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, done)
}

func TestProcessedFoldersMissingFile(t *testing.T) {
	done, err := ProcessedFolders(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Empty(t, done)
}
