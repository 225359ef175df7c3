package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigillum/internal/model"
	"sigillum/internal/registry"
)

var recordColumns = []string{"id", "doc_code", "file_path", "file_hash", "uploaded_at", "revoked"}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := model.NewDocument{
		DocCode:    "A3F9KX2BQW3M",
		FilePath:   "documents/A3F9KX2BQW3M.pdf",
		FileHash:   "deadbeef",
		UploadedAt: now,
	}

	t.Run("success", func(t *testing.T) {
		rows := sqlmock.NewRows(recordColumns).
			AddRow(int64(1), doc.DocCode, doc.FilePath, doc.FileHash, now, false)

		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.DocCode, doc.FilePath, sql.NullString{String: doc.FileHash, Valid: true}, now).
			WillReturnRows(rows)

		rec, err := repo.Create(ctx, doc)

		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, doc.DocCode, rec.DocCode)
		assert.False(t, rec.Revoked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate code", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.DocCode, doc.FilePath, sql.NullString{String: doc.FileHash, Valid: true}, now).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "documents_doc_code_key"})

		_, err := repo.Create(ctx, doc)

		assert.ErrorIs(t, err, registry.ErrDuplicateCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(recordColumns).
			AddRow(int64(7), "A3F9KX2BQW3M", "documents/A3F9KX2BQW3M.pdf", "cafe", time.Now(), true)

		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("A3F9KX2BQW3M").
			WillReturnRows(rows)

		rec, err := repo.GetByCode(ctx, "A3F9KX2BQW3M")

		require.NoError(t, err)
		assert.Equal(t, int64(7), rec.ID)
		assert.True(t, rec.Revoked)
	})

	t.Run("legacy row without hash", func(t *testing.T) {
		rows := sqlmock.NewRows(recordColumns).
			AddRow(int64(8), "B3F9KX2BQW3M", "documents/B3F9KX2BQW3M.pdf", nil, time.Now(), false)

		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("B3F9KX2BQW3M").
			WillReturnRows(rows)

		rec, err := repo.GetByCode(ctx, "B3F9KX2BQW3M")

		require.NoError(t, err)
		assert.Empty(t, rec.FileHash)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs("MISSINGCODE2").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByCode(ctx, "MISSINGCODE2")

		assert.ErrorIs(t, err, registry.ErrNotFound)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	newer := time.Now().UTC()
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows(recordColumns).
		AddRow(int64(2), "NEWERCODE222", "documents/NEWERCODE222.pdf", "aa", newer, false).
		AddRow(int64(1), "OLDERCODE222", "documents/OLDERCODE222.pdf", "bb", older, false)

	mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY uploaded_at DESC").
		WillReturnRows(rows)

	items, err := repo.List(ctx)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "NEWERCODE222", items[0].DocCode)
	assert.Equal(t, "OLDERCODE222", items[1].DocCode)
}

func TestDocumentPostgres_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("row changed", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET revoked").
			WithArgs("A3F9KX2BQW3M").
			WillReturnResult(sqlmock.NewResult(0, 1))

		changed, err := repo.Revoke(ctx, "A3F9KX2BQW3M")

		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("already revoked or unknown", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET revoked").
			WithArgs("A3F9KX2BQW3M").
			WillReturnResult(sqlmock.NewResult(0, 0))

		changed, err := repo.Revoke(ctx, "A3F9KX2BQW3M")

		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET revoked").
			WithArgs("A3F9KX2BQW3M").
			WillReturnError(errors.New("connection lost"))

		_, err := repo.Revoke(ctx, "A3F9KX2BQW3M")

		assert.Error(t, err)
	})
}
