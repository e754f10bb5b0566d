package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	fetchmodels "github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_fetch/models"
	searchmodels "github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/web_search/models"
)

type stubSearch struct {
	mu      sync.Mutex
	calls   []string
	results func(query string) []searchmodels.Result
	err     error
}

func (s *stubSearch) Search(_ context.Context, query string, maxResults int) ([]searchmodels.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rows := s.results(query)
	if len(rows) > maxResults {
		rows = rows[:maxResults]
	}
	return rows, nil
}

func (s *stubSearch) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubFetcher struct {
	pages map[string]string
}

func (f stubFetcher) Fetch(_ context.Context, url string) fetchmodels.Result {
	text, ok := f.pages[url]
	if !ok || text == "" {
		return fetchmodels.Result{URL: url, Outcome: fetchmodels.OutcomeThin}
	}
	return fetchmodels.Result{URL: url, Text: text, Outcome: fetchmodels.OutcomeFetched}
}

// stubLLM answers by system prompt so planner and analyst can be scripted
// separately.
type stubLLM struct {
	mu       sync.Mutex
	plan     string
	analysis string
	err      error
	prompts  map[string]string
}

func (l *stubLLM) Complete(_ context.Context, system, user string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prompts == nil {
		l.prompts = map[string]string{}
	}
	if l.err != nil {
		return "", l.err
	}
	if strings.Contains(system, "planning") {
		l.prompts["plan"] = user
		return l.plan, nil
	}
	l.prompts["analyze"] = user
	return l.analysis, nil
}

type stubMemory struct {
	docs         []RetrievedDoc
	retrieveErr  error
	ingestErr    error
	query        string
	k            int
	retrieved    bool
	ingested     []Source
	summary      string
	bullets      []string
	chunksPerSrc int
}

func (m *stubMemory) Retrieve(_ context.Context, query, company string, k int) ([]RetrievedDoc, error) {
	m.retrieved = true
	m.query = query
	m.k = k
	return m.docs, m.retrieveErr
}

func (m *stubMemory) IngestSources(_ context.Context, company string, sources []Source) (int, error) {
	if m.ingestErr != nil {
		return 0, m.ingestErr
	}
	m.ingested = sources
	return len(sources) * m.chunksPerSrc, nil
}

func (m *stubMemory) IngestSummary(_ context.Context, company, summary string, bullets []string) (int, error) {
	m.summary = summary
	m.bullets = bullets
	return 1 + len(bullets), nil
}

var errBackend = errors.New("backend unavailable")

func longText(seed string) string {
	return strings.Repeat(seed+" ", 100)
}
