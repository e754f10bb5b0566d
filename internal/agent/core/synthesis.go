package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/telemetry"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/helpers"
	"go.uber.org/zap"
)

const (
	analystSystemPrompt = "You are an enterprise due diligence analyst. Use only provided evidence. If evidence is weak, include '[Not fully confirmed]'. Return strict JSON only."

	maxAnalystSources  = 25
	maxAnalystMemory   = 8
	analystExcerptLen  = 500
	fallbackCitations  = 3
	citationSnippetLen = 320
)

type analystSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Excerpt string `json:"excerpt"`
}

type analystSectionFormat struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	CitationURLs []string `json:"citation_urls"`
}

type analystFormat struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	Sections         []analystSectionFormat `json:"sections"`
}

type analystPrompt struct {
	Company          string          `json:"company"`
	Focus            []string        `json:"focus"`
	RequiredSections []string        `json:"required_sections"`
	Sources          []analystSource `json:"sources"`
	Memory           []RetrievedDoc  `json:"memory"`
	Format           analystFormat   `json:"format"`
}

// Synthesis turns evidence into a report: Analyze drafts sections with the
// language model and Write fits the draft to the canonical outline.
type Synthesis struct {
	llm     Synthesizer
	logger  *zap.SugaredLogger
	metrics *telemetry.Metrics
	now     func() time.Time
}

func NewSynthesis(llm Synthesizer, logger *zap.SugaredLogger, metrics *telemetry.Metrics) *Synthesis {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Synthesis{llm: llm, logger: logger.Named("synth"), metrics: metrics, now: time.Now}
}

// Analyze drafts the report. Unusable model output, including an empty
// section list, is replaced by the deterministic fallback draft.
func (s *Synthesis) Analyze(ctx context.Context, company string, focus []string, sources []Source, memory []RetrievedDoc) Analysis {
	if s.llm != nil {
		user, err := buildAnalystPrompt(company, focus, sources, memory)
		if err != nil {
			s.logger.Warnw("build analyst prompt", "error", err)
		} else if out, err := s.llm.Complete(ctx, analystSystemPrompt, user); err != nil {
			s.logger.Warnw("analyst model call failed", "company", company, "error", err)
		} else if a, ok := parseAnalysis(out); ok {
			return a
		}
	}
	s.metrics.SynthFallback("analyze")
	return fallbackAnalysis(company, sources)
}

func buildAnalystPrompt(company string, focus []string, sources []Source, memory []RetrievedDoc) (string, error) {
	if len(sources) > maxAnalystSources {
		sources = sources[:maxAnalystSources]
	}
	rows := make([]analystSource, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, analystSource{
			URL:     src.URL,
			Title:   src.Title,
			Snippet: src.Snippet,
			Excerpt: helpers.Truncate(src.Text, analystExcerptLen),
		})
	}
	if len(memory) > maxAnalystMemory {
		memory = memory[:maxAnalystMemory]
	}
	if focus == nil {
		focus = []string{}
	}
	if memory == nil {
		memory = []RetrievedDoc{}
	}
	body, err := json.Marshal(analystPrompt{
		Company:          company,
		Focus:            focus,
		RequiredSections: SectionTitles,
		Sources:          rows,
		Memory:           memory,
		Format: analystFormat{
			ExecutiveSummary: "string",
			Sections: []analystSectionFormat{{
				Title:        "one of required_sections",
				Content:      "markdown text",
				CitationURLs: []string{"url1", "url2"},
			}},
		},
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parseAnalysis accepts any JSON object whose "sections" is a non-empty
// array. Non-object entries are ignored by the writer.
func parseAnalysis(out string) (Analysis, bool) {
	obj := helpers.ParseJSONObject(out)
	raw, ok := obj["sections"].([]any)
	if !ok || len(raw) == 0 {
		return Analysis{}, false
	}
	a := Analysis{ExecutiveSummary: scalarString(obj["executive_summary"])}
	for _, item := range raw {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a.Sections = append(a.Sections, AnalysisSection{
			Title:        scalarString(row["title"]),
			Content:      scalarString(row["content"]),
			CitationURLs: stringList(row["citation_urls"]),
		})
	}
	return a, true
}

func fallbackAnalysis(company string, sources []Source) Analysis {
	var urls []string
	for i := 0; i < len(sources) && i < fallbackCitations; i++ {
		if sources[i].URL != "" {
			urls = append(urls, sources[i].URL)
		}
	}
	sections := make([]AnalysisSection, 0, len(SectionTitles))
	for _, title := range SectionTitles {
		sections = append(sections, AnalysisSection{
			Title:        title,
			Content:      fmt.Sprintf("[Not fully confirmed] Limited evidence available for %s for %s.", strings.ToLower(title), company),
			CitationURLs: append([]string(nil), urls...),
		})
	}
	return Analysis{
		ExecutiveSummary: fmt.Sprintf("[Not fully confirmed] Automated due diligence draft for %s generated from limited available evidence.", company),
		Sections:         sections,
		Fallback:         true,
	}
}

// Write reconciles the draft with SectionTitles. Later duplicates of a title
// replace earlier ones, missing titles get a placeholder and citations that
// do not name a source of this run are dropped.
func (s *Synthesis) Write(company string, analysis Analysis, sources []Source, memoryUsed bool) Report {
	byURL := make(map[string]Source, len(sources))
	for _, src := range sources {
		if u := helpers.NormalizeURL(src.URL); u != "" {
			byURL[u] = src
		}
	}
	byTitle := make(map[string]AnalysisSection, len(analysis.Sections))
	for _, sec := range analysis.Sections {
		byTitle[strings.TrimSpace(sec.Title)] = sec
	}

	sections := make([]ReportSection, 0, len(SectionTitles))
	for _, title := range SectionTitles {
		row := byTitle[title]
		content := strings.TrimSpace(row.Content)
		if content == "" {
			content = fmt.Sprintf("[Not fully confirmed] No strong evidence found for %s.", strings.ToLower(title))
		}
		citations := []Citation{}
		for _, u := range helpers.DedupeURLs(row.CitationURLs) {
			src, ok := byURL[u]
			if !ok {
				continue
			}
			citations = append(citations, Citation{
				URL:     src.URL,
				Title:   src.Title,
				Snippet: helpers.Truncate(src.Snippet, citationSnippetLen),
			})
		}
		sections = append(sections, ReportSection{Title: title, Content: content, Citations: citations})
	}

	summary := strings.TrimSpace(analysis.ExecutiveSummary)
	if summary == "" {
		summary = fmt.Sprintf("[Not fully confirmed] Due diligence summary for %s generated with incomplete context.", company)
	}
	return Report{
		Company:          company,
		GeneratedAt:      s.now().UTC(),
		ExecutiveSummary: summary,
		Sections:         sections,
		MemoryUsed:       memoryUsed,
	}
}

// scalarString renders a decoded JSON scalar as text. Objects and arrays
// render empty.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
