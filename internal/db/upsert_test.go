package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var analysesUpsert = UpsertConfig{
	Table:        "analyses",
	Columns:      []string{"id", "overall_score", "payload"},
	ConflictKeys: []string{"id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, analysesUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_ConfigErrors(t *testing.T) {
	rows := [][]any{{"a", 7.5, []byte("{}")}}

	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{Table: "analyses", ConflictKeys: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "analyses", Columns: []string{"id"}}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_analyses" \(LIKE "analyses" INCLUDING DEFAULTS\)`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_analyses"}, analysesUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "analyses" .* ON CONFLICT \("id"\) DO UPDATE SET "overall_score" = EXCLUDED."overall_score", "payload" = EXCLUDED."payload"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	rows := [][]any{{"a", 7.5, []byte("{}")}, {"b", 6.1, []byte("{}")}}
	n, err := BulkUpsert(context.Background(), mock, analysesUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_analyses"}, analysesUpsert.Columns).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, analysesUpsert, [][]any{{"a", 7.5, []byte("{}")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for analyses")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL(t *testing.T) {
	got := UpsertSQL("public.analyses", "_tmp", []string{"id", "payload"}, []string{"id"}, nil)
	assert.Equal(t, `INSERT INTO "public"."analyses" ("id", "payload") SELECT "id", "payload" FROM "_tmp" ON CONFLICT ("id") DO NOTHING`, got)
}

func TestTempTableName(t *testing.T) {
	assert.Equal(t, "_tmp_upsert_public_analyses", TempTableName("public.analyses"))
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"analyses", `"analyses"`},
		{"landeval.analyses", `"landeval"."analyses"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
