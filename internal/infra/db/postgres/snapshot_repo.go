package postgres

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "math"
    "time"

    domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

type SnapshotRepository struct { db *sql.DB }

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

const snapshotColumns = `analysis_id, status, score,
       critical, high, medium, findings_total, auto_fixes,
       result_json, archive_url, observed_at`

// Save insert/update snapshot record
func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) error {
    const q = `
INSERT INTO analysis_snapshots
(analysis_id, status, score, critical, high, medium, findings_total, auto_fixes,
 result_json, archive_url, observed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (analysis_id) DO UPDATE SET
 status = EXCLUDED.status,
 score = EXCLUDED.score,
 critical = EXCLUDED.critical,
 high = EXCLUDED.high,
 medium = EXCLUDED.medium,
 findings_total = EXCLUDED.findings_total,
 auto_fixes = EXCLUDED.auto_fixes,
 result_json = EXCLUDED.result_json,
 archive_url = COALESCE(NULLIF(EXCLUDED.archive_url, ''), analysis_snapshots.archive_url),
 observed_at = EXCLUDED.observed_at;`

    status := stringOrDash(string(s.Status))
    observed := s.ObservedAt
    if observed.IsZero() { observed = time.Now() }

    _, err := r.db.ExecContext(ctx, q,
        s.AnalysisID, status, s.Score,
        s.Counts.Critical, s.Counts.High, s.Counts.Medium, s.Counts.Total, s.AutoFixes,
        jsonOrEmpty(s.ResultJSON), s.ArchiveURL, observed,
    )
    return err
}

// Get by analysis id
func (r *SnapshotRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Snapshot, error) {
    q := `SELECT ` + snapshotColumns + ` FROM analysis_snapshots WHERE analysis_id=$1 LIMIT 1;`
    s, err := scanSnapshot(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, domain.ErrSnapshotNotFound
    }
    return s, err
}

// Paginate with offset + limit (classic pagination), newest first
func (r *SnapshotRepository) Paginate(ctx context.Context, page, pageSize int) (domain.PaginatedSnapshots, error) {
    if page <= 0 { page = 1 }
    if pageSize <= 0 { pageSize = 20 }
    offset := (page - 1) * pageSize

    q := `SELECT ` + snapshotColumns + `
FROM analysis_snapshots
ORDER BY observed_at DESC, analysis_id DESC
LIMIT $1 OFFSET $2;`
    rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
    if err != nil {
        return domain.PaginatedSnapshots{}, fmt.Errorf("querying snapshots: %w", err)
    }
    defer rows.Close()

    out := []*domain.Snapshot{}
    for rows.Next() {
        s, err := scanSnapshot(rows)
        if err != nil {
            return domain.PaginatedSnapshots{}, fmt.Errorf("scanning row: %w", err)
        }
        out = append(out, s)
    }
    if err = rows.Err(); err != nil {
        return domain.PaginatedSnapshots{}, fmt.Errorf("iterating rows: %w", err)
    }

    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_snapshots`).Scan(&total); err != nil {
        return domain.PaginatedSnapshots{}, fmt.Errorf("getting total count: %w", err)
    }

    return domain.PaginatedSnapshots{
        Data:       out,
        Page:       page,
        PageSize:   pageSize,
        Total:      total,
        TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
    }, nil
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*domain.Snapshot, error) {
    var s domain.Snapshot
    var crit, hi, med, tot int
    if err := row.Scan(
        &s.AnalysisID, &s.Status, &s.Score,
        &crit, &hi, &med, &tot, &s.AutoFixes,
        &s.ResultJSON, &s.ArchiveURL, &s.ObservedAt,
    ); err != nil {
        return nil, err
    }
    s.Counts = domain.SeverityCounts{Critical: crit, High: hi, Medium: med, Total: tot}
    return &s, nil
}
