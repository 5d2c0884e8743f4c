package encoding

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/pkg/errors"

	"raybridge/dataset-exchange/schema"
)

// EncodedBuffer is one self-describing columnar buffer: an Arrow IPC stream
// holding the schema header and a single record batch. It is independently
// decodable without external context.
type EncodedBuffer struct {
	Data    []byte
	NumRows int64
}

type EncoderOption func(*Encoder)

func WithAllocator(alloc memory.Allocator) EncoderOption {
	return func(e *Encoder) {
		e.alloc = alloc
	}
}

// Encoder drains a RowReader into a lazy sequence of EncodedBuffers, each
// holding at most maxRowsPerBatch rows (all rows when 0). The record builder
// is the working region: it is reused across buffers within one partition and
// must be released through Close on every exit path. An Encoder is not safe
// for concurrent use.
type Encoder struct {
	rows        RowReader
	fields      []schema.Field
	arrowSchema *arrow.Schema
	maxRows     int64

	alloc   memory.Allocator
	builder *array.RecordBuilder
	closed  bool
}

func NewEncoder(rows RowReader, s schema.Schema, maxRowsPerBatch int64, options ...EncoderOption) *Encoder {
	e := &Encoder{
		rows:        rows,
		fields:      s.Fields,
		arrowSchema: schema.ArrowSchema(s),
		maxRows:     maxRowsPerBatch,
		alloc:       memory.DefaultAllocator,
	}
	for _, option := range options {
		option(e)
	}
	e.builder = array.NewRecordBuilder(e.alloc, e.arrowSchema)
	return e
}

// Next produces the next buffer, returning io.EOF once the partition is
// drained. An empty partition yields io.EOF immediately with no buffers, and
// a partition exactly divisible by the batch bound yields no trailing empty
// buffer.
func (e *Encoder) Next() (EncodedBuffer, error) {
	if e.closed {
		return EncodedBuffer{}, io.EOF
	}

	var numRows int64
	for e.maxRows == 0 || numRows < e.maxRows {
		row, err := e.rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return EncodedBuffer{}, err
		}
		if err := e.appendRow(row); err != nil {
			return EncodedBuffer{}, err
		}
		numRows++
	}
	if numRows == 0 {
		return EncodedBuffer{}, io.EOF
	}
	return e.flush(numRows)
}

// Close releases the working region. It is idempotent and must run on every
// exit path, including errors and interruption.
func (e *Encoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.builder.Release()
}

func (e *Encoder) appendRow(row schema.Row) error {
	if len(row) != len(e.fields) {
		return &EncodingError{cause: fmt.Errorf("row has %d values, schema has %d fields", len(row), len(e.fields))}
	}
	for i, field := range e.fields {
		if err := appendValue(e.builder.Field(i), field, row[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) flush(numRows int64) (EncodedBuffer, error) {
	record := e.builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(e.arrowSchema), ipc.WithAllocator(e.alloc))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return EncodedBuffer{}, errors.Wrap(err, "writing record batch")
	}
	if err := writer.Close(); err != nil {
		return EncodedBuffer{}, errors.Wrap(err, "closing ipc stream")
	}
	return EncodedBuffer{Data: buf.Bytes(), NumRows: numRows}, nil
}

func appendValue(builder array.Builder, field schema.Field, value any) error {
	if value == nil {
		if !field.Nullable {
			return &EncodingError{Field: field.Name, cause: fmt.Errorf("null value for non-nullable field")}
		}
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		switch v := value.(type) {
		case int64:
			b.Append(v)
		case int:
			b.Append(int64(v))
		default:
			return typeMismatch(field, value)
		}
	case *array.Float64Builder:
		v, ok := value.(float64)
		if !ok {
			return typeMismatch(field, value)
		}
		b.Append(v)
	case *array.StringBuilder:
		v, ok := value.(string)
		if !ok {
			return typeMismatch(field, value)
		}
		b.Append(v)
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			return typeMismatch(field, value)
		}
		b.Append(v)
	case *array.BinaryBuilder:
		v, ok := value.([]byte)
		if !ok {
			return typeMismatch(field, value)
		}
		b.Append(v)
	case *array.TimestampBuilder:
		switch v := value.(type) {
		case time.Time:
			b.Append(arrow.Timestamp(v.UnixMicro()))
		case int64:
			b.Append(arrow.Timestamp(v))
		default:
			return typeMismatch(field, value)
		}
	default:
		return &EncodingError{Field: field.Name, cause: fmt.Errorf("unsupported field type %s", field.Type)}
	}
	return nil
}

func typeMismatch(field schema.Field, value any) error {
	return &EncodingError{Field: field.Name, cause: fmt.Errorf("value %T does not match field type %s", value, field.Type)}
}
