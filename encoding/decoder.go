package encoding

import (
	"bytes"
	"io"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/pkg/errors"

	"raybridge/dataset-exchange/schema"
)

// DecodeBuffer reads one encoded buffer back into rows. Used for round-trip
// verification and diagnostics; the hot path never decodes.
func DecodeBuffer(data []byte) ([]schema.Row, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "opening ipc stream")
	}
	defer reader.Release()

	var rows []schema.Row
	for reader.Next() {
		record := reader.Record()
		for i := 0; i < int(record.NumRows()); i++ {
			row := make(schema.Row, record.NumCols())
			for j := 0; j < int(record.NumCols()); j++ {
				row[j] = columnValue(record.Column(j), i)
			}
			rows = append(rows, row)
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "reading record batch")
	}
	return rows, nil
}

func columnValue(column arrow.Array, i int) any {
	if column.IsNull(i) {
		return nil
	}
	switch c := column.(type) {
	case *array.Int64:
		return c.Value(i)
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.Boolean:
		return c.Value(i)
	case *array.Binary:
		return c.Value(i)
	case *array.Timestamp:
		return c.Value(i).ToTime(arrow.Microsecond).UTC()
	default:
		return nil
	}
}
