package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"sigillum/internal/model"
	"sigillum/internal/registry"
)

// DocumentPostgres is the PostgreSQL implementation of registry.DocumentRegistry.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres registry.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ registry.DocumentRegistry = (*DocumentPostgres)(nil)

const uniqueViolation = "23505"

// Create inserts a new document row and returns the stored record.
// A doc_code collision surfaces as registry.ErrDuplicateCode.
func (r *DocumentPostgres) Create(ctx context.Context, doc model.NewDocument) (*model.DocumentRecord, error) {
	const q = `
		INSERT INTO documents (doc_code, file_path, file_hash, uploaded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, doc_code, file_path, file_hash, uploaded_at, revoked
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.DocCode,
		doc.FilePath,
		nullableHash(doc.FileHash),
		doc.UploadedAt,
	)
	out, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, registry.ErrDuplicateCode
		}
		return nil, err
	}
	return out, nil
}

// GetByCode fetches a single record by its unique doc_code.
func (r *DocumentPostgres) GetByCode(ctx context.Context, docCode string) (*model.DocumentRecord, error) {
	const q = `
		SELECT id, doc_code, file_path, file_hash, uploaded_at, revoked
		FROM documents
		WHERE doc_code = $1
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
func (r *DocumentPostgres) List(ctx context.Context) ([]model.DocumentRecord, error) {
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

// Revoke flips revoked to true once. The revoked=FALSE predicate makes the
// transition monotonic at the store level.
func (r *DocumentPostgres) Revoke(ctx context.Context, docCode string) (bool, error) {
	const q = `UPDATE documents SET revoked = TRUE WHERE doc_code = $1 AND revoked = FALSE`
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
		rec  model.DocumentRecord
		hash sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.DocCode, &rec.FilePath, &hash, &rec.UploadedAt, &rec.Revoked); err != nil {
		return nil, err
	}
	rec.FileHash = hash.String
	return &rec, nil
}

func nullableHash(h string) sql.NullString {
	return sql.NullString{String: h, Valid: h != ""}
}
