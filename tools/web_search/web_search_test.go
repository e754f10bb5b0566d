package web_search

import (
	"context"
	"errors"
	"testing"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
)

type stubSearcher struct {
	calls   int
	results []models.Result
	err     error
}

func (s *stubSearcher) Search(context.Context, string, int) ([]models.Result, error) {
	s.calls++
	return s.results, s.err
}

func TestNewWebSearcherDisabled(t *testing.T) {
	for _, opts := range []Options{
		{Provider: DuckDuckGoProvider, Enabled: false},
		{Provider: NoneProvider, Enabled: true},
	} {
		s, err := NewWebSearcher(opts)
		if err != nil {
			t.Fatalf("NewWebSearcher: %v", err)
		}
		res, err := s.Search(context.Background(), "acme", 5)
		if err != nil || len(res) != 0 {
			t.Fatalf("expected no results from disabled searcher, got %v %v", res, err)
		}
	}
}

func TestNewWebSearcherUnsupported(t *testing.T) {
	if _, err := NewWebSearcher(Options{Provider: "bing", Enabled: true}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestPacedSanitizesResults(t *testing.T) {
	stub := &stubSearcher{results: []models.Result{
		{Title: "<b>Acme</b> Corp", URL: "https://acme.com", Snippet: "Acme &amp; <strong>friends</strong>\n sell widgets"},
	}}
	p := &paced{next: stub}
	res, err := p.Search(context.Background(), "acme", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res[0].Title != "Acme Corp" || res[0].Snippet != "Acme & friends sell widgets" {
		t.Fatalf("unexpected sanitised result: %+v", res[0])
	}
}

func TestPacedSkipsNonPositiveLimit(t *testing.T) {
	stub := &stubSearcher{}
	p := &paced{next: stub}
	if res, err := p.Search(context.Background(), "acme", 0); err != nil || res != nil {
		t.Fatalf("expected nil results, got %v %v", res, err)
	}
	if stub.calls != 0 {
		t.Fatalf("provider should not be called for zero results")
	}
}

func TestPacedPropagatesError(t *testing.T) {
	p := &paced{next: &stubSearcher{err: errors.New("quota")}}
	if _, err := p.Search(context.Background(), "acme", 2); err == nil {
		t.Fatalf("expected provider error")
	}
}
