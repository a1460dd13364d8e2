// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process TabularStore used by tests and the "memory"
// database driver. Rows are a sparse one-based index map so header writes
// and appends behave like the Postgres driver.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]*memPartition
}

type memPartition struct {
	frozenHeaderRows int
	headerFormatted  bool
	rows             map[int][]string
	maxRow           int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]*memPartition)}
}

func (s *MemoryStore) ListPartitions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) CreatePartition(ctx context.Context, name string, frozenHeaderRows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partitions[name]; exists {
		return nil
	}
	s.partitions[name] = &memPartition{
		frozenHeaderRows: frozenHeaderRows,
		rows:             make(map[int][]string),
	}
	return nil
}

func (s *MemoryStore) WriteRow(ctx context.Context, partition string, rowIndex int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.partitions[partition]
	if !exists {
		return nil
	}
	if _, populated := p.rows[rowIndex]; populated {
		return nil
	}
	p.rows[rowIndex] = append([]string(nil), values...)
	if rowIndex > p.maxRow {
		p.maxRow = rowIndex
	}
	return nil
}

func (s *MemoryStore) AppendRow(ctx context.Context, partition string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.partitions[partition]
	if !exists {
		p = &memPartition{rows: make(map[int][]string)}
		s.partitions[partition] = p
	}
	// The frozen header rows stay reserved even when the header row has not
	// been written yet, so a degraded partition never gets a data record in
	// the header slot.
	if p.maxRow < p.frozenHeaderRows {
		p.maxRow = p.frozenHeaderRows
	}
	p.maxRow++
	p.rows[p.maxRow] = append([]string(nil), values...)
	return nil
}

func (s *MemoryStore) ReadColumn(ctx context.Context, partition string, columnIndex, fromRow int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.partitions[partition]
	if !exists {
		return nil, nil
	}

	var values []string
	for i := fromRow; i <= p.maxRow; i++ {
		row, populated := p.rows[i]
		if !populated {
			continue
		}
		if columnIndex < len(row) {
			values = append(values, row[columnIndex])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

func (s *MemoryStore) ApplyHeaderFormatting(ctx context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.partitions[partition]; exists {
		p.headerFormatted = true
	}
	return nil
}

// Rows returns a copy of a partition's populated rows in index order.
// Test helper.
func (s *MemoryStore) Rows(partition string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.partitions[partition]
	if !exists {
		return nil
	}
	out := make([][]string, 0, len(p.rows))
	for i := 1; i <= p.maxRow; i++ {
		if row, populated := p.rows[i]; populated {
			out = append(out, append([]string(nil), row...))
		}
	}
	return out
}

// HeaderFormatted reports whether formatting was applied. Test helper.
func (s *MemoryStore) HeaderFormatted(partition string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.partitions[partition]
	return exists && p.headerFormatted
}
