package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is the persisted descriptor of one audio (or paired audio+config)
// artifact. A record whose URL and ConfigURL are both null is invalid and is
// deleted rather than persisted.
type Record struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	URL         *string `json:"url"`
	ConfigURL   *string `json:"config_url"`
	Category    string  `json:"category"`
	Volume      float64 `json:"volume"`
	Placeholder string  `json:"placeholder"`
	Size        int64   `json:"size"`
	Date        string  `json:"date"`
	Source      string  `json:"source"`
}

// NewRecord builds a record with a fresh UUID, the default volume, and the
// current date.
func NewRecord(name string) Record {
	return Record{
		ID:     uuid.NewString(),
		Name:   name,
		Volume: 1.0,
		Date:   time.Now().UTC().Format(time.RFC3339),
	}
}

// Valid reports whether the record still references any media or companion
// descriptor.
func (r Record) Valid() bool {
	return !isNullRef(r.URL) || !isNullRef(r.ConfigURL)
}

// isNullRef treats nil and the literal string "null" as equivalent; the
// external store has historically round-tripped JSON null as the string
// "null".
func isNullRef(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == "" || *value == "null"
}

// normalized returns a copy with "null"-string references collapsed to true
// null, so content comparison is stable across store round-trips.
func (r Record) normalized() Record {
	out := r
	if isNullRef(out.URL) {
		out.URL = nil
	}
	if isNullRef(out.ConfigURL) {
		out.ConfigURL = nil
	}
	return out
}

// Optional is a patch field that distinguishes absent, explicit null, and a
// concrete value.
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set builds a present optional carrying value.
func Set[T any](value T) Optional[T] {
	return Optional[T]{Present: true, Value: value}
}

// Null builds a present optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true, Null: true}
}

// UnmarshalJSON records presence; a JSON null marks the field as explicitly
// cleared rather than absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// RecordPatch is an explicit optional-field patch: absent fields are left
// alone, null fields are cleared, set fields are replaced.
type RecordPatch struct {
	Name        Optional[string]  `json:"name"`
	URL         Optional[string]  `json:"url"`
	ConfigURL   Optional[string]  `json:"config_url"`
	Category    Optional[string]  `json:"category"`
	Volume      Optional[float64] `json:"volume"`
	Placeholder Optional[string]  `json:"placeholder"`
	Size        Optional[int64]   `json:"size"`
	Date        Optional[string]  `json:"date"`
	Source      Optional[string]  `json:"source"`
}

// apply merges the patch into rec and returns the result.
func (p RecordPatch) apply(rec Record) Record {
	if p.Name.Present && !p.Name.Null {
		rec.Name = p.Name.Value
	}
	rec.URL = applyNullable(p.URL, rec.URL)
	rec.ConfigURL = applyNullable(p.ConfigURL, rec.ConfigURL)
	if p.Category.Present && !p.Category.Null {
		rec.Category = p.Category.Value
	}
	if p.Volume.Present && !p.Volume.Null {
		rec.Volume = p.Volume.Value
	}
	if p.Placeholder.Present && !p.Placeholder.Null {
		rec.Placeholder = p.Placeholder.Value
	}
	if p.Size.Present && !p.Size.Null {
		rec.Size = p.Size.Value
	}
	if p.Date.Present && !p.Date.Null {
		rec.Date = p.Date.Value
	}
	if p.Source.Present && !p.Source.Null {
		rec.Source = p.Source.Value
	}
	return rec
}

func applyNullable(field Optional[string], current *string) *string {
	if !field.Present {
		return current
	}
	if field.Null {
		return nil
	}
	value := field.Value
	return &value
}

// RelativizeURL strips a known origin prefix so catalog entries stay portable
// across hosting moves. Non-matching URLs pass through unchanged.
func RelativizeURL(origin, url string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" || url == "" {
		return url
	}
	if !strings.HasPrefix(url, origin) {
		return url
	}
	rest := strings.TrimPrefix(url, origin)
	if rest == "" {
		return "/"
	}
	if !strings.HasPrefix(rest, "/") {
		return url
	}
	return rest
}
