package table

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Schema returns the Arrow schema matching the table's column order: float64
// for numeric, second-precision timestamps for datetime, utf8 for categorical.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(t.cols))
	for i, c := range t.cols {
		var dt arrow.DataType
		switch c.Kind {
		case Datetime:
			dt = arrow.FixedWidthTypes.Timestamp_s
		case Categorical:
			dt = arrow.BinaryTypes.String
		default:
			dt = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: c.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Record materializes the table as an Arrow record. NaN floats and empty
// labels become nulls. The caller owns the record and must Release it.
func (t *Table) Record() (arrow.Record, error) {
	schema := t.Schema()
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i, c := range t.cols {
		switch c.Kind {
		case Datetime:
			fb := b.Field(i).(*array.TimestampBuilder)
			for _, ts := range c.Times {
				fb.Append(arrow.Timestamp(ts.Unix()))
			}
		case Categorical:
			fb := b.Field(i).(*array.StringBuilder)
			for _, label := range c.Labels {
				if label == "" {
					fb.AppendNull()
					continue
				}
				fb.Append(label)
			}
		default:
			fb := b.Field(i).(*array.Float64Builder)
			for _, v := range c.Floats {
				if math.IsNaN(v) {
					fb.AppendNull()
					continue
				}
				fb.Append(v)
			}
		}
	}

	return b.NewRecord(), nil
}

// WriteCSV serializes the table through Arrow's CSV writer: a header row,
// then one line per row with nulls as empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	rec, err := t.Record()
	if err != nil {
		return err
	}
	defer rec.Release()

	cw := csv.NewWriter(w, rec.Schema(),
		csv.WithHeader(true),
		csv.WithNullWriter(""),
	)
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
