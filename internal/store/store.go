package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
)

// ErrNotFound is returned when an archived report does not exist.
var ErrNotFound = errors.New("report not found")

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Store archives finished reports in Postgres. It is a caller of the
// research pipeline and is never consulted by it.
type Store struct {
	DB *sql.DB
}

// ReportRecord is one archived report.
type ReportRecord struct {
	ID          string      `json:"id"`
	Company     string      `json:"company"`
	Depth       string      `json:"depth"`
	GeneratedAt time.Time   `json:"generated_at"`
	CreatedAt   time.Time   `json:"created_at"`
	Report      core.Report `json:"report"`
}

// ReportSummary is the listing view of an archived report.
type ReportSummary struct {
	ID          string    `json:"id"`
	Company     string    `json:"company"`
	Depth       string    `json:"depth"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewWithDSN opens and pings the archive database.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// SaveReport archives report under a fresh id.
func (s *Store) SaveReport(ctx context.Context, depth core.Depth, report core.Report) (ReportRecord, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("encode report: %w", err)
	}
	rec := ReportRecord{
		ID:          uuid.NewString(),
		Company:     report.Company,
		Depth:       string(depth),
		GeneratedAt: report.GeneratedAt.UTC(),
		Report:      report,
	}
	err = s.DB.QueryRowContext(ctx, `
INSERT INTO reports (id, company, depth, generated_at, report)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at
`, rec.ID, rec.Company, rec.Depth, rec.GeneratedAt, body).Scan(&rec.CreatedAt)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("insert report: %w", err)
	}
	return rec, nil
}

// GetReport loads one archived report.
func (s *Store) GetReport(ctx context.Context, id string) (ReportRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ReportRecord{}, ErrNotFound
	}
	var (
		rec  ReportRecord
		body []byte
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT id, company, depth, generated_at, created_at, report
FROM reports
WHERE id=$1
`, id).Scan(&rec.ID, &rec.Company, &rec.Depth, &rec.GeneratedAt, &rec.CreatedAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportRecord{}, ErrNotFound
	}
	if err != nil {
		return ReportRecord{}, fmt.Errorf("select report: %w", err)
	}
	if err := json.Unmarshal(body, &rec.Report); err != nil {
		return ReportRecord{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return rec, nil
}

// ListReports returns the newest reports first, optionally restricted to a
// company (case-insensitive).
func (s *Store) ListReports(ctx context.Context, company string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, company, depth, generated_at
FROM reports
WHERE ($1 = '' OR lower(company) = lower($1))
ORDER BY generated_at DESC
LIMIT $2
`, strings.TrimSpace(company), limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []ReportSummary{}
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.ID, &r.Company, &r.Depth, &r.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
