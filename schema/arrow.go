package schema

import (
	"github.com/apache/arrow/go/v10/arrow"
)

func ArrowType(field Field, timezoneID string) arrow.DataType {
	switch field.Type {
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case Bool:
		return arrow.FixedWidthTypes.Boolean
	case Binary:
		return arrow.BinaryTypes.Binary
	case Timestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: timezoneID}
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema maps an engine schema to the Arrow schema embedded in every
// encoded buffer.
func ArrowSchema(s Schema) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(s.Fields))
	for _, field := range s.Fields {
		fields = append(fields, arrow.Field{
			Name:     field.Name,
			Type:     ArrowType(field, s.TimezoneID),
			Nullable: field.Nullable,
		})
	}
	return arrow.NewSchema(fields, nil)
}
