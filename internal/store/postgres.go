// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"recruit-intake/internal/common/metrics"
)

// PostgresStore keeps each partition as a named entry in record_partitions
// and its grid as one JSONB cell array per row in record_rows.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing tables if they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS record_partitions (
			name TEXT PRIMARY KEY,
			frozen_header_rows INT NOT NULL DEFAULT 0,
			header_formatted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("%w: create record_partitions: %v", ErrUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS record_rows (
			partition_name TEXT NOT NULL REFERENCES record_partitions(name),
			row_index INT NOT NULL,
			cells JSONB NOT NULL,
			PRIMARY KEY (partition_name, row_index)
		)`)
	if err != nil {
		return fmt.Errorf("%w: create record_rows: %v", ErrUnavailable, err)
	}

	return nil
}

func (s *PostgresStore) ListPartitions(ctx context.Context) ([]string, error) {
	defer observe("list_partitions", time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM record_partitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list partitions: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan partition name: %v", ErrUnavailable, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list partitions: %v", ErrUnavailable, err)
	}
	return names, nil
}

// CreatePartition is safe to race: the insert is a no-op when the partition
// already exists.
func (s *PostgresStore) CreatePartition(ctx context.Context, name string, frozenHeaderRows int) error {
	defer observe("create_partition", time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_partitions (name, frozen_header_rows)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		name, frozenHeaderRows)
	if err != nil {
		return fmt.Errorf("%w: create partition %q: %v", ErrUnavailable, name, err)
	}
	return nil
}

// WriteRow is insert-if-absent: a populated row index is never overwritten.
func (s *PostgresStore) WriteRow(ctx context.Context, partition string, rowIndex int, values []string) error {
	defer observe("write_row", time.Now())

	cells, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: marshal row cells: %v", ErrUnavailable, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO record_rows (partition_name, row_index, cells)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition_name, row_index) DO NOTHING`,
		partition, rowIndex, cells)
	if err != nil {
		return fmt.Errorf("%w: write row %d of %q: %v", ErrUnavailable, rowIndex, partition, err)
	}
	return nil
}

func (s *PostgresStore) AppendRow(ctx context.Context, partition string, values []string) error {
	defer observe("append_row", time.Now())

	cells, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: marshal row cells: %v", ErrUnavailable, err)
	}

	// Concurrent appends to the same partition can collide on the row index;
	// the store contract only promises each append lands in its own row, so
	// retry on the primary-key conflict. The frozen header rows stay reserved
	// even while unwritten, so a headerless partition never gets a data
	// record in a header slot.
	const attempts = 3
	for i := 0; i < attempts; i++ {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO record_rows (partition_name, row_index, cells)
			SELECT p.name, GREATEST(COALESCE(MAX(r.row_index), 0), p.frozen_header_rows) + 1, $2
			FROM record_partitions p
			LEFT JOIN record_rows r ON r.partition_name = p.name
			WHERE p.name = $1
			GROUP BY p.name, p.frozen_header_rows
			ON CONFLICT (partition_name, row_index) DO NOTHING`,
			partition, cells)
		if err != nil {
			return fmt.Errorf("%w: append row to %q: %v", ErrUnavailable, partition, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: append row to %q: row index contention", ErrUnavailable, partition)
}

func (s *PostgresStore) ReadColumn(ctx context.Context, partition string, columnIndex, fromRow int) ([]string, error) {
	defer observe("read_column", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(cells->>$2, '')
		FROM record_rows
		WHERE partition_name = $1 AND row_index >= $3
		ORDER BY row_index`,
		partition, columnIndex, fromRow)
	if err != nil {
		return nil, fmt.Errorf("%w: read column %d of %q: %v", ErrUnavailable, columnIndex, partition, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan column cell: %v", ErrUnavailable, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read column %d of %q: %v", ErrUnavailable, columnIndex, partition, err)
	}
	return values, nil
}

// ApplyHeaderFormatting flags the partition's header as formatted. The flag
// is what a spreadsheet frontend reads to render the header row bold.
func (s *PostgresStore) ApplyHeaderFormatting(ctx context.Context, partition string) error {
	defer observe("apply_header_formatting", time.Now())

	_, err := s.db.ExecContext(ctx, `
		UPDATE record_partitions SET header_formatted = TRUE WHERE name = $1`,
		partition)
	if err != nil {
		return fmt.Errorf("%w: format header of %q: %v", ErrUnavailable, partition, err)
	}
	return nil
}

func observe(operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
