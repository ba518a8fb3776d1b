package domain

import "time"

// PathStructured and PathSemantic name the two retrieval paths.
const (
	PathStructured = "structured"
	PathSemantic   = "semantic"
)

// Default per-path timeouts. The semantic path gets more room because query
// embedding happens before the vector search.
const (
	DefaultStructuredTimeout = 500 * time.Millisecond
	DefaultSemanticTimeout   = 1000 * time.Millisecond
)

// StructuredQuery addresses one whitelisted table with exact-match filters.
type StructuredQuery struct {
	Table   string         `json:"table"`
	Filters map[string]any `json:"filters,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Timeout time.Duration  `json:"-"`
}

// StructuredHit is one row with full provenance.
type StructuredHit struct {
	Table  string         `json:"table"`
	RowID  string         `json:"row_id"`
	Fields map[string]any `json:"fields"`
}

// String reads a field as a string, empty when absent or differently typed.
func (h StructuredHit) String(key string) string {
	s, _ := h.Fields[key].(string)
	return s
}

// Float reads a numeric field, reporting whether it was present.
func (h StructuredHit) Float(key string) (float64, bool) {
	switch v := h.Fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (h StructuredHit) Bool(key string) (bool, bool) {
	b, ok := h.Fields[key].(bool)
	return b, ok
}

// SemanticQuery is a nearest-neighbour search over one named collection.
type SemanticQuery struct {
	Text       string            `json:"text"`
	Collection string            `json:"collection"`
	TopK       int               `json:"top_k,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	Timeout    time.Duration     `json:"-"`
}

// SemanticHit is one retrieved chunk. Distance is a non-negative
// dissimilarity, lower means more similar; no upper bound is assumed.
type SemanticHit struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Section  string  `json:"section,omitempty"`
	Page     int     `json:"page,omitempty"`
	Distance float64 `json:"distance"`
}

// Provenance records which paths contributed evidence. Empty only when both
// paths failed.
type Provenance map[string]struct{}

func (p Provenance) Mark(path string) {
	p[path] = struct{}{}
}

func (p Provenance) Has(path string) bool {
	_, ok := p[path]
	return ok
}

// Paths lists contributing paths in a fixed order for stable JSON output.
func (p Provenance) Paths() []string {
	out := make([]string, 0, 2)
	if p.Has(PathStructured) {
		out = append(out, PathStructured)
	}
	if p.Has(PathSemantic) {
		out = append(out, PathSemantic)
	}
	return out
}

// Evidence is the merged outcome of one dual-path retrieval. Both result
// slices may be empty; Provenance tells "asked and found nothing" apart from
// "could not ask".
type Evidence struct {
	Provenance Provenance      `json:"-"`
	Structured []StructuredHit `json:"structured"`
	Semantic   []SemanticHit   `json:"semantic"`
}
