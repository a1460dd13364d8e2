// Package store defines the tabular record store the intake pipeline writes
// to, plus its Postgres and in-memory drivers. A store is a set of named
// partitions, each an append-only grid of string cells with row 1 reserved
// for headers.
package store

import (
	"context"
	"errors"
)

// ErrUnavailable marks any transport, auth, or query failure against the
// store. Callers wrap it with the step that failed; they never see driver
// internals.
var ErrUnavailable = errors.New("record store unavailable")

// TabularStore is the capability surface the intake pipeline requires.
//
// ReadColumn on a partition that does not exist returns an empty slice, not
// an error: the uniqueness scan treats missing partitions as contributing
// zero matches.
type TabularStore interface {
	// ListPartitions returns the names of every existing partition.
	ListPartitions(ctx context.Context) ([]string, error)

	// CreatePartition creates a partition with the given number of frozen
	// header rows. Creating a partition that already exists is not an error.
	CreatePartition(ctx context.Context, name string, frozenHeaderRows int) error

	// WriteRow writes values at a one-based row index. Writing a row that is
	// already populated leaves the existing row untouched, so a header, once
	// written, is never rewritten.
	WriteRow(ctx context.Context, partition string, rowIndex int, values []string) error

	// AppendRow adds values as a new row after the last populated row.
	AppendRow(ctx context.Context, partition string, values []string) error

	// ReadColumn returns the cells of one zero-based column, from the
	// one-based fromRow downward.
	ReadColumn(ctx context.Context, partition string, columnIndex, fromRow int) ([]string, error)

	// ApplyHeaderFormatting marks the header row for presentation. Cosmetic;
	// failures must never fail a submission.
	ApplyHeaderFormatting(ctx context.Context, partition string) error
}
