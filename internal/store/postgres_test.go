// internal/store/postgres_test.go
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_ListPartitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT name FROM record_partitions`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Design").
			AddRow("Technical"))

	s := NewPostgresStore(db)
	names, err := s.ListPartitions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Design", "Technical"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPartitions_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT name FROM record_partitions`).
		WillReturnError(errors.New("connection refused"))

	s := NewPostgresStore(db)
	_, err = s.ListPartitions(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPostgresStore_CreatePartition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO record_partitions`).
		WithArgs("Technical", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.CreatePartition(context.Background(), "Technical", 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreatePartition_AlreadyExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// ON CONFLICT DO NOTHING: zero rows affected, still success.
	mock.ExpectExec(`INSERT INTO record_partitions`).
		WithArgs("Technical", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewPostgresStore(db)
	require.NoError(t, s.CreatePartition(context.Background(), "Technical", 1))
}

func TestPostgresStore_WriteRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO record_rows`).
		WithArgs("Technical", 1, []byte(`["Timestamp","Name","USN"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.WriteRow(context.Background(), "Technical", 1, []string{"Timestamp", "Name", "USN"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO record_rows`).
		WithArgs("Technical", []byte(`["t1","A","X1"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.AppendRow(context.Background(), "Technical", []string{"t1", "A", "X1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRow_ReservesFrozenHeaderRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The computed index must skip the partition's frozen header rows even
	// when the header row was never written.
	mock.ExpectExec(`GREATEST\(COALESCE\(MAX\(r\.row_index\), 0\), p\.frozen_header_rows\) \+ 1`).
		WithArgs("Technical", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.AppendRow(context.Background(), "Technical", []string{"t1", "A", "X1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRow_RetriesOnIndexContention(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// First attempt loses the row-index race (conflict, zero rows), second
	// attempt lands.
	mock.ExpectExec(`INSERT INTO record_rows`).
		WithArgs("Technical", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO record_rows`).
		WithArgs("Technical", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.AppendRow(context.Background(), "Technical", []string{"t1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRow_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO record_rows`).
		WithArgs("Technical", sqlmock.AnyArg()).
		WillReturnError(errors.New("network timeout"))

	s := NewPostgresStore(db)
	err = s.AppendRow(context.Background(), "Technical", []string{"t1"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPostgresStore_ReadColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("Technical", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"cell"}).
			AddRow("X1").
			AddRow("X2"))

	s := NewPostgresStore(db)
	values, err := s.ReadColumn(context.Background(), "Technical", 2, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"X1", "X2"}, values)
}

func TestPostgresStore_ReadColumn_MissingPartitionIsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("Never Created", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"cell"}))

	s := NewPostgresStore(db)
	values, err := s.ReadColumn(context.Background(), "Never Created", 2, 2)

	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestPostgresStore_ApplyHeaderFormatting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE record_partitions SET header_formatted`).
		WithArgs("Technical").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresStore(db)
	require.NoError(t, s.ApplyHeaderFormatting(context.Background(), "Technical"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
