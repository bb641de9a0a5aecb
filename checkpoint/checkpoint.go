// Package checkpoint persists the state needed to resume a suspended
// import: the xmlproc re-entrancy cursor alongside the importer's
// idempotency tables, serialized the way xmlproc's own cursor encoding
// does, through json-iterator/go.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/xmlproc"
)

var checkpointJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Checkpoint is the on-disk record of one suspended import: enough to
// rebuild the xmlproc.Processor and the importer.Controller exactly where
// they left off.
type Checkpoint struct {
	SessionID string                `json:"session_id"`
	Cursor    xmlproc.Cursor        `json:"cursor"`
	// Tail holds the processor's buffered-but-not-yet-consumed bytes at
	// the moment the cursor was taken; CreateForStreaming needs both
	// together to resume at the exact same point.
	Tail []byte `json:"tail"`
	// ConsumedBytes is how far into the source file Tail's end sits, so
	// a resumed run knows where to keep reading from.
	ConsumedBytes int64                  `json:"consumed_bytes"`
	State         *importer.ImportState `json:"state"`
}

// Save atomically writes a Checkpoint to path: it writes to a temp file in
// the same directory and renames over the destination, so a crash mid-write
// never leaves a truncated checkpoint where a resumable one used to be.
func Save(path string, cp Checkpoint) error {
	data, err := checkpointJSON.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Load reads and decodes a Checkpoint previously written by Save.
func Load(path string) (Checkpoint, error) {
	var cp Checkpoint
	data, err := os.ReadFile(path)
	if err != nil {
		return cp, fmt.Errorf("checkpoint: read: %w", err)
	}
	if err := checkpointJSON.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("checkpoint: unmarshal: %w", err)
	}
	return cp, nil
}

// Exists reports whether a checkpoint file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes a checkpoint file, ignoring a not-exist error so callers
// can unconditionally clean up after a successful import.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
