package badger

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// Serialization Strategy
// ======================
//
// File records are JSON (readable with any badger dump tool, tolerant of new
// fields). Path index values are the 16 raw UUID bytes.

// encodeFile serializes a file record to JSON bytes.
func encodeFile(file *metadata.File) ([]byte, error) {
	data, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file %s: %w", file.ID, err)
	}
	return data, nil
}

// decodeFile deserializes a file record from JSON bytes.
func decodeFile(data []byte) (*metadata.File, error) {
	var file metadata.File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	return &file, nil
}

// decodeID deserializes a path index value.
func decodeID(data []byte) (uuid.UUID, error) {
	id, err := uuid.FromBytes(data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode file id: %w", err)
	}
	return id, nil
}
