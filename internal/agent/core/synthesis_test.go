package core

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleSources() []Source {
	return []Source{
		{URL: "https://a.example.com/about", Title: "About A", Snippet: strings.Repeat("s", 400), Text: longText("alpha")},
		{URL: "", Title: "No URL"},
		{URL: "https://b.example.com", Title: "B", Snippet: "b"},
		{URL: "https://c.example.com", Title: "C", Snippet: "c"},
		{URL: "https://d.example.com", Title: "D", Snippet: "d"},
	}
}

func TestAnalyzeEmptySectionsFallsBack(t *testing.T) {
	for _, out := range []string{`{"sections": []}`, `{}`, `not json`, `{"sections": "x"}`} {
		s := NewSynthesis(&stubLLM{analysis: out}, nil, nil)
		a := s.Analyze(context.Background(), "Acme", nil, sampleSources(), nil)
		if !a.Fallback {
			t.Fatalf("%q: expected fallback analysis", out)
		}
		if len(a.Sections) != len(SectionTitles) {
			t.Fatalf("%q: got %d sections", out, len(a.Sections))
		}
		for i, sec := range a.Sections {
			want := "[Not fully confirmed] Limited evidence available for " + strings.ToLower(SectionTitles[i]) + " for Acme."
			if sec.Content != want {
				t.Fatalf("content = %q, want %q", sec.Content, want)
			}
			if len(sec.CitationURLs) != 2 {
				t.Fatalf("fallback citations = %q, want the two non-empty urls among the first three sources", sec.CitationURLs)
			}
		}
		if !strings.HasPrefix(a.ExecutiveSummary, "[Not fully confirmed] Automated due diligence draft for Acme") {
			t.Fatalf("summary = %q", a.ExecutiveSummary)
		}
	}
}

func TestAnalyzeModelError(t *testing.T) {
	s := NewSynthesis(&stubLLM{err: errBackend}, nil, nil)
	if a := s.Analyze(context.Background(), "Acme", nil, nil, nil); !a.Fallback {
		t.Fatalf("expected fallback when the model errors")
	}
}

func TestAnalyzePromptShape(t *testing.T) {
	llm := &stubLLM{analysis: `{"executive_summary":"ok","sections":[{"title":"Market","content":"big","citation_urls":["https://a.example.com/about"]}]}`}
	s := NewSynthesis(llm, nil, nil)
	memory := make([]RetrievedDoc, 12)
	sources := make([]Source, 30)
	for i := range sources {
		sources[i] = Source{URL: "https://x.example.com/" + string(rune('a'+i)), Text: strings.Repeat("z", 900)}
	}

	a := s.Analyze(context.Background(), "Acme", []string{"pricing"}, sources, memory)
	if a.Fallback || a.ExecutiveSummary != "ok" || len(a.Sections) != 1 {
		t.Fatalf("unexpected analysis %+v", a)
	}

	var prompt struct {
		Company          string   `json:"company"`
		Focus            []string `json:"focus"`
		RequiredSections []string `json:"required_sections"`
		Sources          []struct {
			Excerpt string `json:"excerpt"`
		} `json:"sources"`
		Memory []json.RawMessage `json:"memory"`
	}
	if err := json.Unmarshal([]byte(llm.prompts["analyze"]), &prompt); err != nil {
		t.Fatalf("analyst prompt is not JSON: %v", err)
	}
	if len(prompt.Sources) != 25 || len(prompt.Sources[0].Excerpt) != 500 {
		t.Fatalf("sources = %d, excerpt = %d", len(prompt.Sources), len(prompt.Sources[0].Excerpt))
	}
	if len(prompt.Memory) != 8 || len(prompt.RequiredSections) != 8 || prompt.Company != "Acme" {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
}

func TestWriteCanonicalizesSections(t *testing.T) {
	s := NewSynthesis(nil, nil, nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	analysis := Analysis{
		Sections: []AnalysisSection{
			{Title: "Market", Content: "first"},
			{Title: " Market ", Content: "second", CitationURLs: []string{
				"https://a.example.com/about/",
				"https://a.example.com/about",
				"https://unknown.example.com",
			}},
			{Title: "Weather", Content: "ignored"},
			{Title: "Risks", Content: "   "},
		},
	}
	report := s.Write("Acme", analysis, sampleSources(), true)

	if len(report.Sections) != len(SectionTitles) {
		t.Fatalf("got %d sections", len(report.Sections))
	}
	for i, sec := range report.Sections {
		if sec.Title != SectionTitles[i] {
			t.Fatalf("section %d = %q, want %q", i, sec.Title, SectionTitles[i])
		}
		if sec.Citations == nil {
			t.Fatalf("section %q has nil citations", sec.Title)
		}
	}
	market := report.Sections[3]
	if market.Content != "second" {
		t.Fatalf("last duplicate should win, got %q", market.Content)
	}
	if len(market.Citations) != 1 || market.Citations[0].Title != "About A" || len(market.Citations[0].Snippet) != 320 {
		t.Fatalf("unexpected citations %+v", market.Citations)
	}
	if got := report.Sections[6].Content; got != "[Not fully confirmed] No strong evidence found for risks." {
		t.Fatalf("risks placeholder = %q", got)
	}
	if report.ExecutiveSummary != "[Not fully confirmed] Due diligence summary for Acme generated with incomplete context." {
		t.Fatalf("summary placeholder = %q", report.ExecutiveSummary)
	}
	if !report.GeneratedAt.Equal(fixed) || !report.MemoryUsed {
		t.Fatalf("unexpected report header %+v", report)
	}
}
