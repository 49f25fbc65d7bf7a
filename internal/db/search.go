package db

// TagFilter restricts a search to documents whose TAG field equals Value exactly.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filter       *TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// ListQuery is the input for paginated listing over an FT index.
type ListQuery struct {
	IndexName string
	Filter    *TagFilter // nil lists every document under the index prefix
	Offset    int
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For JSON indexes without RETURN the whole document is under Fields["$"].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
