package repositories

import (
	"encoding/json"
	"fmt"
)

// marshalDoc encodes a domain record for storage in a table's JSONB
// document column, the generalized form of the teacher's metadata-blob
// pattern applied to every collection.
func marshalDoc(v any) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalDoc decodes a document column back into a domain record.
func unmarshalDoc(doc []byte, v any) error {
	if len(doc) == 0 {
		return nil
	}
	if err := json.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}
