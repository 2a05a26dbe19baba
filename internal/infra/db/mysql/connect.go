package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
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
  analysis_id  VARCHAR(128) NOT NULL PRIMARY KEY,
  status       VARCHAR(32)  NOT NULL,
  score        INT          NOT NULL DEFAULT 0,
  critical     INT          NOT NULL DEFAULT 0,
  high         INT          NOT NULL DEFAULT 0,
  medium       INT          NOT NULL DEFAULT 0,
  findings_total INT        NOT NULL DEFAULT 0,
  auto_fixes   INT          NOT NULL DEFAULT 0,
  result_json  JSON         NOT NULL,
  archive_url  VARCHAR(512) NOT NULL DEFAULT '',
  observed_at  DATETIME(3)  NOT NULL,
  KEY idx_snapshots_observed (observed_at)
);
CREATE TABLE IF NOT EXISTS analysis_incidents (
  id           BIGINT AUTO_INCREMENT PRIMARY KEY,
  analysis_id  VARCHAR(128) NOT NULL,
  phase        VARCHAR(32)  NOT NULL,
  code         VARCHAR(64)  NOT NULL,
  message      TEXT         NOT NULL,
  details_json JSON         NOT NULL,
  created_at   DATETIME(3)  NOT NULL,
  KEY idx_incidents_analysis (analysis_id, created_at)
);`

// EnsureSchema creates the tables when missing
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
