package persist

import (
	"encoding/json"
	"fmt"

	"shopapp/internal/cart"
)

const snapshotVersion = 1

type snapshot struct {
	Version int         `json:"version"`
	Lines   []cart.Line `json:"lines"`
}

// Encode serializes cart lines in display order.
func Encode(lines []cart.Line) ([]byte, error) {
	if lines == nil {
		lines = []cart.Line{}
	}
	return json.Marshal(snapshot{Version: snapshotVersion, Lines: lines})
}

func Decode(data []byte) ([]cart.Line, error) {
	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if doc.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}
	if doc.Lines == nil {
		doc.Lines = []cart.Line{}
	}
	return doc.Lines, nil
}
