// Package table holds the in-memory column table a generation run builds up,
// and its conversion to an Arrow record for serialization. Columns keep
// insertion order; that order is the output schema.
package table

import (
	"fmt"
	"time"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Numeric columns are float64; NaN marks a missing value.
	Numeric Kind = iota
	// Datetime columns hold timestamps from a sequential_datetime feature.
	Datetime
	// Categorical columns hold labels; the empty string marks a missing value.
	Categorical
)

// Column is one named value sequence. Exactly one of Floats, Times, or Labels
// is populated, matching Kind.
type Column struct {
	Name   string
	Kind   Kind
	Floats []float64
	Times  []time.Time
	Labels []string
}

// Len returns the column's row count.
func (c *Column) Len() int {
	switch c.Kind {
	case Datetime:
		return len(c.Times)
	case Categorical:
		return len(c.Labels)
	}
	return len(c.Floats)
}

// Table is an ordered collection of equally sized columns. It is mutated
// in place by the generation stages and must be treated as immutable once a
// run returns it.
type Table struct {
	nrows int
	cols  []*Column
	index map[string]int
}

// New creates an empty table expecting nrows rows per column.
func New(nrows int) *Table {
	return &Table{nrows: nrows, index: make(map[string]int)}
}

// NumRows returns the expected row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns added so far.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in insertion order. The slice is shared; do not
// reorder it.
func (t *Table) Columns() []*Column { return t.cols }

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

func (t *Table) add(c *Column) error {
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if c.Len() != t.nrows {
		return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.nrows)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// AddNumeric appends a float64 column.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.add(&Column{Name: name, Kind: Numeric, Floats: values})
}

// AddDatetime appends a timestamp column.
func (t *Table) AddDatetime(name string, values []time.Time) error {
	return t.add(&Column{Name: name, Kind: Datetime, Times: values})
}

// AddCategorical appends a label column.
func (t *Table) AddCategorical(name string, labels []string) error {
	return t.add(&Column{Name: name, Kind: Categorical, Labels: labels})
}

// Relabel converts the named numeric column to a categorical one in place,
// keeping its position in the schema. Used when a categorical feature's
// sampled values are mapped to decile labels.
func (t *Table) Relabel(name string, labels []string) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("no column %q", name)
	}
	if len(labels) != t.nrows {
		return fmt.Errorf("column %q: %d labels, want %d", name, len(labels), t.nrows)
	}
	c := t.cols[i]
	if c.Kind != Numeric {
		return fmt.Errorf("column %q is not numeric", name)
	}
	t.cols[i] = &Column{Name: name, Kind: Categorical, Labels: labels}
	return nil
}
