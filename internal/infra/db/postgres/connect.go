package postgres

import (
    "context"
    "database/sql"
    "strings"
    "time"

    _ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
    db, err := sql.Open("postgres", dsn)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx2); err != nil {
        db.Close()
        return nil, err
    }
    return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_snapshots (
  analysis_id    VARCHAR(128) PRIMARY KEY,
  status         VARCHAR(32)  NOT NULL,
  score          INT          NOT NULL DEFAULT 0,
  critical       INT          NOT NULL DEFAULT 0,
  high           INT          NOT NULL DEFAULT 0,
  medium         INT          NOT NULL DEFAULT 0,
  findings_total INT          NOT NULL DEFAULT 0,
  auto_fixes     INT          NOT NULL DEFAULT 0,
  result_json    JSONB        NOT NULL DEFAULT '{}',
  archive_url    VARCHAR(512) NOT NULL DEFAULT '',
  observed_at    TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_observed ON analysis_snapshots (observed_at);
CREATE TABLE IF NOT EXISTS analysis_incidents (
  id           BIGSERIAL PRIMARY KEY,
  analysis_id  VARCHAR(128) NOT NULL,
  phase        VARCHAR(32)  NOT NULL,
  code         VARCHAR(64)  NOT NULL,
  message      TEXT         NOT NULL,
  details_json JSONB        NOT NULL DEFAULT '{}',
  created_at   TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incidents_analysis ON analysis_incidents (analysis_id, created_at);`

// EnsureSchema creates the tables when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
    for _, stmt := range strings.Split(schema, ";") {
        if strings.TrimSpace(stmt) == "" {
            continue
        }
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
    if strings.TrimSpace(s) == "" {
        return "-"
    }
    return s
}

func jsonOrEmpty(s string) string {
    if strings.TrimSpace(s) == "" {
        return "{}"
    }
    return s
}
