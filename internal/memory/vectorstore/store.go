// Package vectorstore is a persistent, exact nearest-neighbour index over
// unit-length embeddings with one metadata row per vector.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrCorruptIndex      = errors.New("vectorstore: corrupt index")
	ErrDimensionMismatch = errors.New("vectorstore: embedding dimension mismatch")
)

// Embedder returns unit-length vectors, one per text.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// Store keeps vectors and metadata in memory and mirrors both to dir. It is
// single-writer/multi-reader: AddDocuments holds the write lock across the
// in-memory append and the rewrite of both files.
type Store struct {
	dir      string
	embedder Embedder
	log      *zap.SugaredLogger

	mu      sync.RWMutex
	dim     int
	vectors []float32
	records []Record
}

// Open loads the index and metadata files from dir when both exist and
// otherwise starts empty. When the two files disagree on row count, the
// shared prefix is kept and the trailing rows of the longer file are dropped.
// Undecodable files are reported as ErrCorruptIndex.
func Open(dir string, embedder Embedder, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	s := &Store{dir: dir, embedder: embedder, log: log.Named("memory")}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	indexPath := filepath.Join(s.dir, IndexFile)
	metaPath := filepath.Join(s.dir, MetadataFile)
	hasIndex, err := exists(indexPath)
	if err != nil {
		return err
	}
	hasMeta, err := exists(metaPath)
	if err != nil {
		return err
	}
	if !hasIndex || !hasMeta {
		if hasIndex || hasMeta {
			s.log.Warnw("ignoring incomplete index artifacts", "dir", s.dir, "index", hasIndex, "metadata", hasMeta)
		}
		return nil
	}

	f, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	dim, vectors, err := decodeIndex(f)
	f.Close()
	if err != nil {
		return err
	}
	mf, err := os.Open(metaPath)
	if err != nil {
		return fmt.Errorf("open metadata: %w", err)
	}
	records, err := decodeMetadata(mf)
	mf.Close()
	if err != nil {
		return err
	}
	count := 0
	if dim > 0 {
		count = len(vectors) / dim
	}
	if count != len(records) {
		keep := min(count, len(records))
		s.log.Warnw("index and metadata disagree; keeping shared prefix",
			"dir", s.dir, "vectors", count, "metadata_rows", len(records), "kept", keep)
		count = keep
		vectors = vectors[:keep*dim]
		records = records[:keep]
	}
	s.dim, s.vectors, s.records = dim, vectors, records
	s.log.Infow("memory index loaded", "vectors", count, "dimension", dim)
	return nil
}

// AddDocuments embeds the non-blank texts, appends them with their records
// and rewrites both files before returning the number added. On a write
// failure the in-memory append is rolled back and the index file is
// rewritten from the rolled-back state, so disk and memory agree again.
func (s *Store) AddDocuments(ctx context.Context, texts []string, records []Record) (int, error) {
	if len(texts) != len(records) {
		return 0, fmt.Errorf("vectorstore: %d texts but %d records", len(texts), len(records))
	}
	var (
		clean []string
		rows  []Record
	)
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		rec := records[i]
		rec.Text = t
		clean = append(clean, t)
		rows = append(rows, rec)
	}
	if len(clean) == 0 {
		return 0, nil
	}

	vecs, err := s.embedder.EmbedMany(ctx, clean)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(clean) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(clean))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(vecs[0])
	}
	for _, v := range vecs {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), dim)
		}
	}

	prevDim, prevVecLen, prevRecLen := s.dim, len(s.vectors), len(s.records)
	s.dim = dim
	for _, v := range vecs {
		s.vectors = append(s.vectors, v...)
	}
	s.records = append(s.records, rows...)
	if err := s.saveLocked(); err != nil {
		s.dim = prevDim
		s.vectors = s.vectors[:prevVecLen]
		s.records = s.records[:prevRecLen]
		if rerr := s.restoreIndexLocked(); rerr != nil {
			s.log.Errorw("restore index after failed write", "dir", s.dir, "error", rerr)
		}
		return 0, fmt.Errorf("persist index: %w", err)
	}
	return len(rows), nil
}

// SimilaritySearch returns up to k rows nearest to query, optionally
// restricted to one company (case-insensitive). max(3k, k) neighbours are
// fetched before the company filter is applied; ties keep insertion order.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, company string) ([]SearchResult, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	s.mu.RLock()
	empty := len(s.records) == 0
	s.mu.RUnlock()
	if empty {
		return nil, nil
	}

	qv, err := s.embedder.EmbedMany(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := qv[0]

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(q) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), s.dim)
	}

	n := len(s.records)
	order := make([]int, n)
	dist := make([]float32, n)
	for i := 0; i < n; i++ {
		order[i] = i
		dist[i] = squaredL2(q, s.vectors[i*s.dim:(i+1)*s.dim])
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })

	fetch := k * 3
	if fetch < k {
		fetch = k
	}
	if fetch > n {
		fetch = n
	}
	out := make([]SearchResult, 0, k)
	for _, idx := range order[:fetch] {
		rec := s.records[idx]
		if company != "" && !strings.EqualFold(rec.Company, company) {
			continue
		}
		out = append(out, SearchResult{Text: rec.Text, Score: dist[idx], Record: rec})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// Stats reports counts per company and source type.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Vectors:      len(s.records),
		Dimension:    s.dim,
		ByCompany:    map[string]int{},
		BySourceType: map[string]int{},
	}
	for _, rec := range s.records {
		st.ByCompany[strings.ToLower(rec.Company)]++
		st.BySourceType[rec.SourceType]++
	}
	return st
}

// Flush rewrites both files from memory. An empty store writes nothing.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	return s.saveLocked()
}

// Close flushes the store. The Store must not be used afterwards.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return fmt.Errorf("flush memory index: %w", err)
	}
	return nil
}

func (s *Store) saveLocked() error {
	if err := writeAtomic(s.dir, IndexFile, func(w io.Writer) error {
		return encodeIndex(w, s.dim, s.vectors)
	}); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if err := writeAtomic(s.dir, MetadataFile, func(w io.Writer) error {
		return encodeMetadata(w, s.records)
	}); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// restoreIndexLocked puts index.bin back in step with memory after saveLocked
// failed part way. metadata.jsonl is untouched by a failed rename.
func (s *Store) restoreIndexLocked() error {
	if len(s.records) == 0 {
		err := os.Remove(filepath.Join(s.dir, IndexFile))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return writeAtomic(s.dir, IndexFile, func(w io.Writer) error {
		return encodeIndex(w, s.dim, s.vectors)
	})
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
