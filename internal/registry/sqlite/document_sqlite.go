package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlitedrv "modernc.org/sqlite"

	"sigillum/internal/model"
	"sigillum/internal/registry"
)

// DocumentSQLite is the embedded SQLite implementation of
// registry.DocumentRegistry, for single-node deployments. The *sql.DB handle
// is injected, constructed once at startup (database.NewSQLite) and shared
// process-wide; WAL mode keeps readers unblocked by the single writer.
type DocumentSQLite struct {
	db *sql.DB
}

// NewDocumentSQLite creates a new DocumentSQLite registry.
func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

var _ registry.DocumentRegistry = (*DocumentSQLite)(nil)

// SQLITE_CONSTRAINT_UNIQUE extended result code.
const constraintUnique = 2067

// Create inserts a new document row and returns the stored record.
// A doc_code collision surfaces as registry.ErrDuplicateCode.
func (r *DocumentSQLite) Create(ctx context.Context, doc model.NewDocument) (*model.DocumentRecord, error) {
	const q = `
		INSERT INTO documents (doc_code, file_path, file_hash, uploaded_at)
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q,
		doc.DocCode,
		doc.FilePath,
		nullableHash(doc.FileHash),
		doc.UploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		var se *sqlitedrv.Error
		if errors.As(err, &se) && se.Code() == constraintUnique {
			return nil, registry.ErrDuplicateCode
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	const sel = `
		SELECT id, doc_code, file_path, file_hash, uploaded_at, revoked
		FROM documents
		WHERE id = ?
	`
	return scanRecord(r.db.QueryRowContext(ctx, sel, id))
}

// GetByCode fetches a single record by its unique doc_code.
func (r *DocumentSQLite) GetByCode(ctx context.Context, docCode string) (*model.DocumentRecord, error) {
	const q = `
		SELECT id, doc_code, file_path, file_hash, uploaded_at, revoked
		FROM documents
		WHERE doc_code = ?
	`
	out, err := scanRecord(r.db.QueryRowContext(ctx, q, docCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, registry.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// List returns all records ordered by most recently uploaded first.
func (r *DocumentSQLite) List(ctx context.Context) ([]model.DocumentRecord, error) {
	const q = `
		SELECT id, doc_code, file_path, file_hash, uploaded_at, revoked
		FROM documents
		ORDER BY uploaded_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Revoke flips revoked to 1 once. The revoked=0 predicate makes the
// transition monotonic at the store level.
func (r *DocumentSQLite) Revoke(ctx context.Context, docCode string) (bool, error) {
	const q = `UPDATE documents SET revoked = 1 WHERE doc_code = ? AND revoked = 0`
	res, err := r.db.ExecContext(ctx, q, docCode)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*model.DocumentRecord, error) {
	var (
		rec        model.DocumentRecord
		hash       sql.NullString
		uploadedAt string
		revoked    int64
	)
	if err := s.Scan(&rec.ID, &rec.DocCode, &rec.FilePath, &hash, &uploadedAt, &revoked); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	rec.FileHash = hash.String
	rec.UploadedAt = ts
	rec.Revoked = revoked != 0
	return &rec, nil
}

func nullableHash(h string) sql.NullString {
	return sql.NullString{String: h, Valid: h != ""}
}
