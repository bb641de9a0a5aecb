package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/wxrimport/checkpoint"
	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/xmlproc"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	state := importer.NewImportState("sess-1")
	state.ProcessedPosts["1"] = "local-1"
	state.URLRemap["/old"] = "/new"

	p, err := xmlproc.ForStreaming([]byte("<rss"), nil)
	require.NoError(t, err)

	cp := checkpoint.Checkpoint{
		SessionID:     "sess-1",
		Cursor:        p.GetReentrancyCursor(),
		Tail:          p.RemainingBuffer(),
		ConsumedBytes: 4,
		State:         state,
	}

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.False(t, checkpoint.Exists(path))
	require.NoError(t, checkpoint.Save(path, cp))
	require.True(t, checkpoint.Exists(path))

	got, err := checkpoint.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cp.SessionID, got.SessionID)
	assert.Equal(t, cp.ConsumedBytes, got.ConsumedBytes)
	assert.Equal(t, cp.Tail, got.Tail)
	assert.Equal(t, "local-1", got.State.ProcessedPosts["1"])
	assert.Equal(t, "/new", got.State.URLRemap["/old"])
}

func TestRemoveIgnoresMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	assert.NoError(t, checkpoint.Remove(path))
}

func TestSaveIsAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	state := importer.NewImportState("sess-2")

	require.NoError(t, checkpoint.Save(path, checkpoint.Checkpoint{SessionID: "sess-2", State: state}))

	entries, err := filepath.Glob(filepath.Join(dir, ".checkpoint-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, entries, "Save must not leave a temp file behind on success")
}
