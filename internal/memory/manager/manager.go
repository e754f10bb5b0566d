package manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	agentcore "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/memory/chunker"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/memory/vectorstore"
	"go.uber.org/zap"
)

const summaryTitle = "Analyst summary"

type storeAPI interface {
	AddDocuments(ctx context.Context, texts []string, records []vectorstore.Record) (int, error)
	SimilaritySearch(ctx context.Context, query string, k int, company string) ([]vectorstore.SearchResult, error)
}

// Manager is the ingestion and retrieval API the research pipeline uses
// over the vector store.
type Manager struct {
	store  storeAPI
	logger *zap.SugaredLogger
	now    func() time.Time
}

var _ agentcore.Memory = (*Manager)(nil)

func New(store storeAPI, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Manager{store: store, logger: logger.Named("memory"), now: time.Now}
}

// Retrieve returns up to k stored passages for company nearest to query.
func (m *Manager) Retrieve(ctx context.Context, query, company string, k int) ([]agentcore.RetrievedDoc, error) {
	results, err := m.store.SimilaritySearch(ctx, query, k, company)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	docs := make([]agentcore.RetrievedDoc, 0, len(results))
	for _, r := range results {
		docs = append(docs, agentcore.RetrievedDoc{
			Text:  r.Text,
			Score: r.Score,
			Metadata: agentcore.MemoryRecord{
				Company:     r.Record.Company,
				URL:         r.Record.URL,
				Title:       r.Record.Title,
				RetrievedAt: r.Record.RetrievedAt,
				SourceType:  r.Record.SourceType,
			},
		})
	}
	return docs, nil
}

// IngestSources chunks every source's text and stores all chunks as web
// records in a single batch.
func (m *Manager) IngestSources(ctx context.Context, company string, sources []agentcore.Source) (int, error) {
	now := m.timestamp()
	var (
		texts   []string
		records []vectorstore.Record
	)
	for _, src := range sources {
		for _, chunk := range chunker.Default(src.Text) {
			texts = append(texts, chunk)
			records = append(records, vectorstore.Record{
				Company:     company,
				URL:         src.URL,
				Title:       src.Title,
				RetrievedAt: now,
				SourceType:  vectorstore.SourceWeb,
			})
		}
	}
	if len(texts) == 0 {
		return 0, nil
	}
	added, err := m.store.AddDocuments(ctx, texts, records)
	if err != nil {
		return 0, fmt.Errorf("add source chunks: %w", err)
	}
	m.logger.Debugw("ingested sources", "company", company, "sources", len(sources), "chunks", added)
	return added, nil
}

// IngestSummary stores the executive summary and bullets as summary
// records. Blank entries are dropped before counting.
func (m *Manager) IngestSummary(ctx context.Context, company, summary string, bullets []string) (int, error) {
	now := m.timestamp()
	var (
		texts   []string
		records []vectorstore.Record
	)
	for _, t := range append([]string{summary}, bullets...) {
		if strings.TrimSpace(t) == "" {
			continue
		}
		texts = append(texts, t)
		records = append(records, vectorstore.Record{
			Company:     company,
			Title:       summaryTitle,
			RetrievedAt: now,
			SourceType:  vectorstore.SourceSummary,
		})
	}
	if len(texts) == 0 {
		return 0, nil
	}
	added, err := m.store.AddDocuments(ctx, texts, records)
	if err != nil {
		return 0, fmt.Errorf("add summary: %w", err)
	}
	return added, nil
}

func (m *Manager) timestamp() string {
	return m.now().UTC().Format(time.RFC3339Nano)
}
