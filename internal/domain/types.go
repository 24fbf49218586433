package domain

// Document is the full text of one source file.
type Document struct {
	Source string
	Text   string
}

// Chunk is a contiguous, possibly overlapping segment of a document.
// Index is 1-based and follows document order.
type Chunk struct {
	Index  int
	Text   string
	Source string
}

// Record is the unit persisted in the search store.
type Record struct {
	ID     string `json:"id"`
	Data   string `json:"data"`
	Source string `json:"source"`
}

// SearchResult is a record returned by a query. Rank is its 1-based position
// in the store's ordering; Score is whatever relevance value the store reports.
type SearchResult struct {
	Record
	Rank  int
	Score float64
}
