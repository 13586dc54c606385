// Package passages holds the fixed passage table and selects entries from it.
package passages

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/recognition-mock/internal/config"
	"github.com/example/recognition-mock/internal/randsrc"
)

// Passage is one text with its translation.
type Passage struct {
	Text        string `mapstructure:"text"`
	Translation string `mapstructure:"translation"`
}

// Table is an immutable, non-empty sequence of passages.
type Table struct {
	entries []Passage
}

// NewTable copies entries into a table. It rejects an empty table and any
// passage with a blank text or translation.
func NewTable(entries []Passage) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: passage table is empty", config.ErrInvalidConfig)
	}
	for i, p := range entries {
		if strings.TrimSpace(p.Text) == "" || strings.TrimSpace(p.Translation) == "" {
			return nil, fmt.Errorf("%w: passage %d has an empty text or translation", config.ErrInvalidConfig, i)
		}
	}
	return &Table{entries: append([]Passage(nil), entries...)}, nil
}

// Len returns the number of passages.
func (t *Table) Len() int { return len(t.entries) }

// At returns the passage at index i.
func (t *Table) At(i int) Passage { return t.entries[i] }

// Selector picks a passage uniformly at random.
type Selector struct {
	table *Table
	src   randsrc.Source
}

// NewSelector picks uniformly from table using src.
func NewSelector(table *Table, src randsrc.Source) *Selector {
	return &Selector{table: table, src: src}
}

// Pick returns one passage. It never fails.
func (s *Selector) Pick(_ context.Context) Passage {
	return s.table.At(s.src.IntN(s.table.Len()))
}
