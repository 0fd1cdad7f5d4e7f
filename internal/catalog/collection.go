package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Collection is the ordered set of records persisted as one document,
// unique by id. Mutations are pure: collection in, collection out.
type Collection []Record

// ParseCollection decodes the serialized catalog document. An empty document
// decodes to an empty collection.
func ParseCollection(data []byte) (Collection, error) {
	if len(data) == 0 {
		return Collection{}, nil
	}
	var col Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("parse catalog document: %w", err)
	}
	return col, nil
}

// Serialize encodes the collection as the single catalog document.
func (c Collection) Serialize() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize catalog document: %w", err)
	}
	return data, nil
}

// FindIndex returns the position of the record with the given id, or -1.
func (c Collection) FindIndex(id string) int {
	for i, rec := range c {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Append inserts rec, degrading to an update when a record with the same id
// already exists. An invalid record (no url, no config url) removes any
// existing entry instead of persisting empty.
func (c Collection) Append(rec Record) Collection {
	rec = rec.normalized()
	idx := c.FindIndex(rec.ID)
	if !rec.Valid() {
		if idx < 0 {
			return c.clone()
		}
		out, _ := c.Remove(rec.ID)
		return out
	}
	out := c.clone()
	if idx >= 0 {
		out[idx] = rec
		return out
	}
	return append(out, rec)
}

// Update merges patch into the record with the given id. A record left with
// neither url nor config url is deleted outright rather than persisted
// empty. The bool reports whether the id was found.
func (c Collection) Update(id string, patch RecordPatch) (Collection, bool) {
	idx := c.FindIndex(id)
	if idx < 0 {
		return c.clone(), false
	}
	merged := patch.apply(c[idx]).normalized()
	if !merged.Valid() {
		out, _ := c.Remove(id)
		return out, true
	}
	out := c.clone()
	out[idx] = merged
	return out, true
}

// Remove filters the record out. Removing an absent id leaves the collection
// unchanged; remove is idempotent.
func (c Collection) Remove(id string) (Collection, bool) {
	idx := c.FindIndex(id)
	if idx < 0 {
		return c.clone(), false
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:idx]...)
	out = append(out, c[idx+1:]...)
	return out, true
}

// Hash computes a content hash of the normalized collection. Collections
// that differ only in "null"-string versus true-null references hash equal.
func (c Collection) Hash() ([32]byte, error) {
	normalized := make(Collection, 0, len(c))
	for _, rec := range c {
		normalized = append(normalized, rec.normalized())
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return [32]byte{}, fmt.Errorf("hash catalog: %w", err)
	}
	return blake3.Sum256(data), nil
}

func (c Collection) clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}
