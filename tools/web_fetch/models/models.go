package models

// Outcome classifies how a fetch concluded.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"     // served from the content cache
	OutcomeFetched Outcome = "fetched" // downloaded, cleaned and cached
	OutcomeFailed  Outcome = "failed"  // transport error, HTTP >= 400 or extraction error
	OutcomeThin    Outcome = "thin"    // cleaned text shorter than the minimum
	OutcomeBlocked Outcome = "blocked" // rejected by the domain policy
)

// Result is the cleaned text of one page. Text is empty unless Outcome is
// OutcomeHit or OutcomeFetched.
type Result struct {
	URL       string  `json:"url"`
	Text      string  `json:"text"`
	Outcome   Outcome `json:"outcome"`
	Status    int     `json:"status,omitempty"`
	ElapsedMS int     `json:"elapsed_ms"`
}

// OK reports whether the result carries usable text.
func (r Result) OK() bool { return r.Text != "" }
