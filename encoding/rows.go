package encoding

import (
	"io"

	"raybridge/dataset-exchange/schema"
)

// RowReader yields the rows of one partition in order. Next returns io.EOF
// after the last row. Implementations are not safe for concurrent use.
type RowReader interface {
	Next() (schema.Row, error)
}

type SliceReader struct {
	rows []schema.Row
	pos  int
}

func NewSliceReader(rows []schema.Row) *SliceReader {
	return &SliceReader{rows: rows}
}

func (r *SliceReader) Next() (schema.Row, error) {
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}
