package mysql

import (
    "context"
    "database/sql"
    "strings"
    "time"

    domain "github.com/bryanwahyu/aegis-console/internal/domain/analysis"
)

type IncidentRepository struct {
    db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepository { return &IncidentRepository{db: db} }

func (r *IncidentRepository) Save(ctx context.Context, e *domain.Incident) error {
    const q = `
INSERT INTO analysis_incidents
  (analysis_id, phase, code, message, details_json, created_at)
VALUES (?,?,?,?,?,?)
`
    id := stringOrDash(string(e.AnalysisID))
    phase := stringOrDash(e.Phase)
    code := stringOrDash(e.Code)
    msg := e.Message
    if strings.TrimSpace(msg) == "" {
        msg = "-"
    }
    created := e.CreatedAt
    if created.IsZero() {
        created = time.Now()
    }
    _, err := r.db.ExecContext(ctx, q, id, phase, code, msg, jsonOrEmpty(e.DetailsJSON), created)
    return err
}

func (r *IncidentRepository) ListByAnalysis(ctx context.Context, id domain.AnalysisID, limit int) ([]*domain.Incident, error) {
    if limit <= 0 { limit = 20 }
    const q = `
SELECT id, analysis_id, phase, code, message, details_json, created_at
FROM analysis_incidents
WHERE analysis_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
    rows, err := r.db.QueryContext(ctx, q, id, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []*domain.Incident{}
    for rows.Next() {
        var e domain.Incident
        if err := rows.Scan(&e.ID, &e.AnalysisID, &e.Phase, &e.Code, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, &e)
    }
    return out, rows.Err()
}
