package repository

import (
	"encoding/json"
	"fmt"
)

// encodeFields flattens a typed record into the document field map persisted
// by the store adapter.
func encodeFields(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return fields, nil
}

// decodeFields populates a typed record from stored document fields. Unknown
// fields are dropped and missing fields keep their zero values, so documents
// written by older tooling decode cleanly.
func decodeFields(fields map[string]any, record any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
