package schema_test

import (
	"testing"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/stretchr/testify/require"

	"raybridge/dataset-exchange/schema"
)

func TestArrowSchema(t *testing.T) {
	s := schema.Schema{
		Fields: []schema.Field{
			{Name: "id", Type: schema.Int64},
			{Name: "score", Type: schema.Float64},
			{Name: "name", Type: schema.String, Nullable: true},
			{Name: "active", Type: schema.Bool},
			{Name: "blob", Type: schema.Binary},
			{Name: "observed_at", Type: schema.Timestamp},
		},
		TimezoneID: "America/New_York",
	}

	arrowSchema := schema.ArrowSchema(s)
	require.Equal(t, 6, len(arrowSchema.Fields()))
	require.Equal(t, arrow.PrimitiveTypes.Int64, arrowSchema.Field(0).Type)
	require.Equal(t, arrow.PrimitiveTypes.Float64, arrowSchema.Field(1).Type)
	require.Equal(t, arrow.BinaryTypes.String, arrowSchema.Field(2).Type)
	require.True(t, arrowSchema.Field(2).Nullable)
	require.Equal(t, arrow.FixedWidthTypes.Boolean, arrowSchema.Field(3).Type)
	require.Equal(t, arrow.BinaryTypes.Binary, arrowSchema.Field(4).Type)
	require.Equal(t, &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "America/New_York"}, arrowSchema.Field(5).Type)
}

func TestNewDefaultsToUTC(t *testing.T) {
	s := schema.New(schema.Field{Name: "observed_at", Type: schema.Timestamp})
	require.Equal(t, "UTC", s.TimezoneID)
	require.Equal(t, 1, s.NumFields())
}
