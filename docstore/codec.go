package docstore

import (
	"campus-sync/contract"
	"encoding/json"
)

// Encode converts an entity struct into a loosely-typed store document
// using its json tags.
func Encode(v any) (contract.Document, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc contract.Document
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode fills an entity struct from a store document. Unknown fields are
// ignored; missing required fields are caught by repository validation.
func Decode(doc contract.Document, out any) error {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
