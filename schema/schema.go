package schema

// FieldType enumerates the value types the execution engine can hand over
// for publication.
type FieldType int

const (
	Int64 FieldType = iota
	Float64
	String
	Bool
	Binary
	Timestamp
)

func (t FieldType) String() string {
	switch t {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Binary:
		return "binary"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// Schema describes the shape of every row in one dataset. TimezoneID applies
// to Timestamp fields and uses IANA names, e.g. "UTC" or "America/New_York".
type Schema struct {
	Fields     []Field
	TimezoneID string
}

// Row is one record in partition order. Values are positional and must match
// the schema's fields.
type Row []any

func New(fields ...Field) Schema {
	return Schema{Fields: fields, TimezoneID: "UTC"}
}

func (s Schema) NumFields() int {
	return len(s.Fields)
}
