package assets

import (
	"encoding/json"
	"path"

	"gorm.io/datatypes"
)

// DocumentRef is the normalized shape of one attached document.
type DocumentRef struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
}

// DecodeDocuments reads the stored document list. Legacy rows hold bare
// path strings; those are upgraded to the normalized shape with the base
// name as original_name. Unreadable elements are dropped, never fatal.
func DecodeDocuments(raw datatypes.JSON) []DocumentRef {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	docs := make([]DocumentRef, 0, len(elems))
	for _, el := range elems {
		var ref DocumentRef
		if err := json.Unmarshal(el, &ref); err == nil && ref.Path != "" {
			if ref.OriginalName == "" {
				ref.OriginalName = path.Base(ref.Path)
			}
			docs = append(docs, ref)
			continue
		}
		var legacy string
		if err := json.Unmarshal(el, &legacy); err == nil && legacy != "" {
			docs = append(docs, DocumentRef{Path: legacy, OriginalName: path.Base(legacy)})
		}
	}
	return docs
}

func EncodeDocuments(docs []DocumentRef) datatypes.JSON {
	if docs == nil {
		docs = []DocumentRef{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return raw
}

// RemoveDocuments splits docs into the kept (contiguously re-indexed) list
// and the removed entries. Indices outside the current list are ignored.
func RemoveDocuments(docs []DocumentRef, indices []int) (kept, removed []DocumentRef) {
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(docs) {
			drop[i] = struct{}{}
		}
	}
	kept = make([]DocumentRef, 0, len(docs))
	for i, d := range docs {
		if _, gone := drop[i]; gone {
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	return kept, removed
}
