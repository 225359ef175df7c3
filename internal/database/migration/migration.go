package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Dialect selects the SQL flavor the migration steps are written in.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

type migrationStep struct {
	Name string
	SQL  string
}

// The documents table is the single persistent entity: records are inserted
// once, revoked at most once, and never deleted.
var postgresSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id          BIGSERIAL   PRIMARY KEY,
  doc_code    TEXT        NOT NULL UNIQUE,
  file_path   TEXT        NOT NULL,
  file_hash   TEXT,
  uploaded_at TIMESTAMPTZ NOT NULL,
  revoked     BOOLEAN     NOT NULL DEFAULT FALSE
);`,
	},
	{
		Name: "create_index_documents_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents (uploaded_at DESC);`,
	},
}

var sqliteSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  doc_code    TEXT    NOT NULL UNIQUE,
  file_path   TEXT    NOT NULL,
  file_hash   TEXT,
  uploaded_at TEXT    NOT NULL,
  revoked     INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_documents_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents (uploaded_at DESC);`,
	},
}

// EnsureMigrated applies the schema steps for the given dialect. Every step
// is idempotent (IF NOT EXISTS), so running it on every startup is safe.
func EnsureMigrated(ctx context.Context, db *sql.DB, dialect Dialect) error {
	start := time.Now()

	var steps []migrationStep
	switch dialect {
	case Postgres:
		steps = postgresSteps
	case SQLite:
		steps = sqliteSteps
	default:
		return fmt.Errorf("unknown migration dialect %q", dialect)
	}

	logJSON(map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"dialect":   string(dialect),
	})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logJSON(map[string]any{
				"component":      "database",
				"event":          "db_migration_failed",
				"status":         "error",
				"migration_step": step.Name,
				"error_message":  err.Error(),
				"dialect":        string(dialect),
				"duration_ms":    time.Since(start).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"dialect":          string(dialect),
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"dialect":     string(dialect),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
