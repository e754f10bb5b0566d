package vectorstore

// Source types stored in Record.SourceType.
const (
	SourceWeb     = "web"
	SourceSummary = "summary"
)

// Record is one metadata row, stored alongside the vector at the same
// position. Rows are appended and never edited.
type Record struct {
	Text        string `json:"text"`
	Company     string `json:"company"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	RetrievedAt string `json:"retrieved_at"`
	SourceType  string `json:"source_type"`
}

// SearchResult pairs a stored row with its squared L2 distance to the query.
// Lower is closer.
type SearchResult struct {
	Text   string  `json:"text"`
	Score  float32 `json:"score"`
	Record Record  `json:"metadata"`
}

// Stats summarises the store contents.
type Stats struct {
	Vectors      int            `json:"vectors"`
	Dimension    int            `json:"dimension"`
	ByCompany    map[string]int `json:"by_company"`
	BySourceType map[string]int `json:"by_source_type"`
}
