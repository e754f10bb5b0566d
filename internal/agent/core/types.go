package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	fetchmodels "github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_fetch/models"
	searchmodels "github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
)

// ErrInvalidRequest is returned by Run when the request fails validation.
var ErrInvalidRequest = errors.New("invalid research request")

// Depth is the coarse effort knob of a research run.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ParseDepth maps a user supplied depth to a Depth. Empty input selects
// DepthStandard.
func ParseDepth(s string) (Depth, error) {
	switch d := Depth(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DepthStandard, nil
	case DepthQuick, DepthStandard, DepthDeep:
		return d, nil
	default:
		return "", fmt.Errorf("%w: depth must be quick, standard or deep, got %q", ErrInvalidRequest, s)
	}
}

// DepthProfile holds the per-depth limits of a run.
type DepthProfile struct {
	Queries    int // planned query count
	PerQuery   int // search results requested per query
	MinSources int // evidence threshold for the retry branch
	MaxFetch   int // sources fetched after dedup
}

var profiles = map[Depth]DepthProfile{
	DepthQuick:    {Queries: 4, PerQuery: 2, MinSources: 3, MaxFetch: 5},
	DepthStandard: {Queries: 8, PerQuery: 3, MinSources: 5, MaxFetch: 10},
	DepthDeep:     {Queries: 12, PerQuery: 4, MinSources: 8, MaxFetch: 15},
}

// Profile returns the limits for d. Unknown depths get the standard profile.
func (d Depth) Profile() DepthProfile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[DepthStandard]
}

// SectionTitles is the canonical report outline, in order.
var SectionTitles = []string{
	"Company Overview",
	"Business Model",
	"Revenue Streams",
	"Market",
	"Competitors",
	"SWOT",
	"Risks",
	"Opportunities",
}

// Request is one invocation of the research pipeline.
type Request struct {
	Company   string   `json:"company"`
	Focus     []string `json:"focus"`
	Depth     Depth    `json:"depth"`
	UseMemory bool     `json:"use_memory"`
}

// Normalize trims the company, drops blank focus terms and defaults the
// depth, returning ErrInvalidRequest for an empty company or unknown depth.
func (r Request) Normalize() (Request, error) {
	r.Company = strings.TrimSpace(r.Company)
	if r.Company == "" {
		return r, fmt.Errorf("%w: company is required", ErrInvalidRequest)
	}
	focus := make([]string, 0, len(r.Focus))
	for _, f := range r.Focus {
		if f = strings.TrimSpace(f); f != "" {
			focus = append(focus, f)
		}
	}
	r.Focus = focus
	d, err := ParseDepth(string(r.Depth))
	if err != nil {
		return r, err
	}
	r.Depth = d
	return r, nil
}

// Source is a search hit, later enriched with fetched page text.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Text    string `json:"text,omitempty"`
}

// MemoryRecord is the metadata stored alongside every memory vector.
type MemoryRecord struct {
	Company     string `json:"company"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	RetrievedAt string `json:"retrieved_at"`
	SourceType  string `json:"source_type"`
}

// RetrievedDoc is one memory passage returned by retrieval.
type RetrievedDoc struct {
	Text     string       `json:"text"`
	Score    float32      `json:"score"`
	Metadata MemoryRecord `json:"metadata"`
}

type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type ReportSection struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
}

type MemoryUpdates struct {
	AddedDocs    int `json:"added_docs"`
	AddedSources int `json:"added_sources"`
}

// Report is the final output of a run. Sections always follow SectionTitles.
type Report struct {
	Company          string          `json:"company"`
	GeneratedAt      time.Time       `json:"generated_at"`
	ExecutiveSummary string          `json:"executive_summary"`
	Sections         []ReportSection `json:"sections"`
	MemoryUsed       bool            `json:"memory_used"`
	MemoryUpdates    MemoryUpdates   `json:"memory_updates"`
}

// AnalysisSection is a section as drafted by the analyst, before it is
// reconciled with the canonical outline.
type AnalysisSection struct {
	Title        string
	Content      string
	CitationURLs []string
}

// Analysis is the analyst draft handed to the writer.
type Analysis struct {
	ExecutiveSummary string
	Sections         []AnalysisSection
	Fallback         bool
}

// SearchProvider returns ranked hits for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]searchmodels.Result, error)
}

// ContentFetcher returns the cleaned text of a page. Failures are reported
// as an empty Text, never as an error.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) fetchmodels.Result
}

// Synthesizer is the language model used for planning and analysis.
type Synthesizer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Memory is the long-term store consulted before analysis and updated
// after the report is written.
type Memory interface {
	Retrieve(ctx context.Context, query, company string, k int) ([]RetrievedDoc, error)
	IngestSources(ctx context.Context, company string, sources []Source) (int, error)
	IngestSummary(ctx context.Context, company, summary string, bullets []string) (int, error)
}
