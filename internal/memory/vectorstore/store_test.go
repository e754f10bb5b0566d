package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/provider/heuristic"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/tools/embedding"
)

func newEmbedder(dim int) *embedding.Embedding {
	return embedding.NewEmbedding(heuristic.HashingEmbedder{Dim: dim})
}

func rec(company, source string) Record {
	return Record{Company: company, SourceType: source, RetrievedAt: "2026-01-01T00:00:00Z"}
}

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, newEmbedder(64), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestEmptyStoreAndBlankQuery(t *testing.T) {
	s := openStore(t, t.TempDir())
	res, err := s.SimilaritySearch(context.Background(), "acme pricing", 5, "")
	if err != nil || len(res) != 0 {
		t.Fatalf("expected empty result from empty store, got %v %v", res, err)
	}
	if _, err := s.AddDocuments(context.Background(), []string{"acme pricing page"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	res, err = s.SimilaritySearch(context.Background(), "   ", 5, "")
	if err != nil || len(res) != 0 {
		t.Fatalf("expected empty result for blank query, got %v %v", res, err)
	}
}

func TestAddDocumentsSkipsBlankTexts(t *testing.T) {
	s := openStore(t, t.TempDir())
	n, err := s.AddDocuments(context.Background(),
		[]string{"  Acme makes widgets  ", "", "   ", "Acme sells to banks"},
		[]Record{rec("Acme", SourceWeb), rec("Acme", SourceWeb), rec("Acme", SourceWeb), rec("Acme", SourceWeb)},
	)
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 added, got %d", n)
	}
	if st := s.Stats(); st.Vectors != 2 || st.Dimension != 64 {
		t.Fatalf("unexpected stats %+v", st)
	}
	res, _ := s.SimilaritySearch(context.Background(), "widgets", 1, "")
	if len(res) != 1 || res[0].Text != "Acme makes widgets" {
		t.Fatalf("expected trimmed text to be stored, got %+v", res)
	}
	if n, err := s.AddDocuments(context.Background(), []string{" "}, []Record{rec("Acme", SourceWeb)}); err != nil || n != 0 {
		t.Fatalf("expected no-op for blank batch, got %d %v", n, err)
	}
	if _, err := s.AddDocuments(context.Background(), []string{"a"}, nil); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestSimilaritySearchCompanyFilter(t *testing.T) {
	s := openStore(t, t.TempDir())
	var texts []string
	var records []Record
	for i := 0; i < 10; i++ {
		texts = append(texts, fmt.Sprintf("pricing plans and enterprise tiers report %d", i))
		records = append(records, rec("Globex", SourceWeb))
	}
	texts = append(texts, "Acme pricing plans for enterprise customers", "acme revenue streams")
	records = append(records, rec("Acme", SourceWeb), rec("ACME", SourceSummary))
	if _, err := s.AddDocuments(context.Background(), texts, records); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}

	res, err := s.SimilaritySearch(context.Background(), "pricing plans enterprise", 3, "acme")
	if err != nil {
		t.Fatalf("SimilaritySearch: %v", err)
	}
	for _, r := range res {
		if !strings.EqualFold(r.Record.Company, "acme") {
			t.Fatalf("result from wrong company: %+v", r.Record)
		}
	}

	all, _ := s.SimilaritySearch(context.Background(), "pricing plans enterprise", 3, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 unfiltered results, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Score < all[i-1].Score {
			t.Fatalf("results not ordered by distance: %v", all)
		}
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	if _, err := s.AddDocuments(context.Background(),
		[]string{"Acme overview", "Acme risks include litigation"},
		[]Record{rec("Acme", SourceWeb), rec("Acme", SourceSummary)},
	); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, name := range []string{IndexFile, MetadataFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s on disk: %v", name, err)
		}
	}

	reopened := openStore(t, dir)
	st := reopened.Stats()
	if st.Vectors != 2 || st.ByCompany["acme"] != 2 || st.BySourceType[SourceSummary] != 1 {
		t.Fatalf("unexpected stats after reload: %+v", st)
	}
	res, err := reopened.SimilaritySearch(context.Background(), "litigation risks", 1, "Acme")
	if err != nil || len(res) != 1 || res[0].Text != "Acme risks include litigation" {
		t.Fatalf("unexpected search after reload: %+v %v", res, err)
	}
}

func TestOpenKeepsSharedPrefixOnCountMismatch(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	if _, err := s.AddDocuments(context.Background(), []string{"one"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, MetadataFile), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open metadata: %v", err)
	}
	fmt.Fprintln(f, `{"text":"extra","company":"Acme","retrieved_at":"x","source_type":"web"}`)
	f.Close()

	reopened := openStore(t, dir)
	if st := reopened.Stats(); st.Vectors != 1 {
		t.Fatalf("expected the shared prefix of 1 row, got %+v", st)
	}
	if _, err := reopened.AddDocuments(context.Background(), []string{"two"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments after recovery: %v", err)
	}
	if st := openStore(t, dir).Stats(); st.Vectors != 2 {
		t.Fatalf("expected 2 consistent rows on disk, got %+v", st)
	}
}

func TestOpenRejectsUndecodableIndex(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	if _, err := s.AddDocuments(context.Background(), []string{"one"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(dir, newEmbedder(64), nil); !errors.Is(err, ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestFailedMetadataWriteLeavesLoadableIndex(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	if _, err := s.AddDocuments(context.Background(), []string{"Acme overview"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	metaPath := filepath.Join(dir, MetadataFile)
	saved, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}

	// A non-empty directory in place of metadata.jsonl makes its rename fail
	// after index.bin has already been replaced.
	if err := os.Remove(metaPath); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(metaPath, "blocker"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if n, err := s.AddDocuments(context.Background(), []string{"Acme risks"}, []Record{rec("Acme", SourceWeb)}); err == nil || n != 0 {
		t.Fatalf("expected persist error, got %d %v", n, err)
	}
	if st := s.Stats(); st.Vectors != 1 {
		t.Fatalf("failed add must be rolled back in memory, got %+v", st)
	}

	f, err := os.Open(filepath.Join(dir, IndexFile))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	dim, vectors, err := decodeIndex(f)
	f.Close()
	if err != nil || len(vectors) != dim {
		t.Fatalf("index.bin should hold 1 vector after rollback, got %d floats (dim %d, err %v)", len(vectors), dim, err)
	}

	if err := os.RemoveAll(metaPath); err != nil {
		t.Fatalf("remove blocker: %v", err)
	}
	if err := os.WriteFile(metaPath, saved, 0o644); err != nil {
		t.Fatalf("restore metadata: %v", err)
	}
	reopened, err := Open(dir, newEmbedder(64), nil)
	if err != nil {
		t.Fatalf("Open after failed write: %v", err)
	}
	if st := reopened.Stats(); st.Vectors != 1 {
		t.Fatalf("expected 1 vector on disk, got %+v", st)
	}
	res, err := reopened.SimilaritySearch(context.Background(), "overview", 1, "Acme")
	if err != nil || len(res) != 1 || res[0].Text != "Acme overview" {
		t.Fatalf("unexpected search after reopen: %+v %v", res, err)
	}
}

func TestOpenIgnoresLoneArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`{"text":"orphan"}`+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := openStore(t, dir)
	if st := s.Stats(); st.Vectors != 0 {
		t.Fatalf("expected empty store, got %+v", st)
	}
}

func TestAddDocumentsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	if _, err := s.AddDocuments(context.Background(), []string{"a"}, []Record{rec("Acme", SourceWeb)}); err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	other, err := Open(dir, newEmbedder(32), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := other.AddDocuments(context.Background(), []string{"b"}, []Record{rec("Acme", SourceWeb)}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if st := other.Stats(); st.Vectors != 1 {
		t.Fatalf("failed add must not change the store, got %+v", st)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedMany(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("model offline")
}

func TestAddDocumentsEmbedderFailure(t *testing.T) {
	s, err := Open(t.TempDir(), failingEmbedder{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n, err := s.AddDocuments(context.Background(), []string{"a"}, []Record{rec("Acme", SourceWeb)}); err == nil || n != 0 {
		t.Fatalf("expected embed error, got %d %v", n, err)
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				text := fmt.Sprintf("worker %d document %d about acme", w, i)
				if _, err := s.AddDocuments(context.Background(), []string{text}, []Record{rec("Acme", SourceWeb)}); err != nil {
					t.Errorf("AddDocuments: %v", err)
				}
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				if _, err := s.SimilaritySearch(context.Background(), "acme document", 3, "Acme"); err != nil {
					t.Errorf("SimilaritySearch: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	if st := s.Stats(); st.Vectors != 20 {
		t.Fatalf("expected 20 vectors, got %d", st.Vectors)
	}
	if st := openStore(t, dir).Stats(); st.Vectors != 20 {
		t.Fatalf("expected 20 vectors on disk, got %d", st.Vectors)
	}
}
