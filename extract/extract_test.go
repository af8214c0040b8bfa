package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowerr "github.com/c360/schemaflow/errors"
	"github.com/c360/schemaflow/types"
)

func TestJSONExtractor_ArrayOfObjects(t *testing.T) {
	input := `[
		{"id": "p101", "price": 9.99, "stock": 12},
		{"id": "p102", "price": 19.99, "stock": 3}
	]`

	batch, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, []string{"id", "price", "stock"}, batch[0].Fields())

	price, _ := batch[0].Get("price")
	assert.Equal(t, 9.99, price)

	stock, _ := batch[1].Get("stock")
	assert.Equal(t, int64(3), stock)
}

func TestJSONExtractor_SingleObject(t *testing.T) {
	batch, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(`{"id": "p101"}`))
	require.NoError(t, err)
	require.Len(t, batch, 1)

	id, ok := batch[0].Get("id")
	require.True(t, ok)
	assert.Equal(t, "p101", id)
}

func TestJSONExtractor_FlattensNestedObjects(t *testing.T) {
	input := `[{"id": "p101", "address": {"city": "Lyon", "geo": {"lat": 45.76}}}]`

	batch, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 1)

	city, ok := batch[0].Get("address.city")
	require.True(t, ok)
	assert.Equal(t, "Lyon", city)

	lat, ok := batch[0].Get("address.geo.lat")
	require.True(t, ok)
	assert.Equal(t, 45.76, lat)

	assert.False(t, batch[0].Has("address"))
}

func TestJSONExtractor_FlattensArrays(t *testing.T) {
	input := `[{"id": "p101", "tags": ["sale", "new"], "variants": [{"sku": "A-1"}]}]`

	batch, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	rec := batch[0]

	first, ok := rec.Get("tags[0]")
	require.True(t, ok)
	assert.Equal(t, "sale", first)

	second, _ := rec.Get("tags[1]")
	assert.Equal(t, "new", second)

	sku, ok := rec.Get("variants[0].sku")
	require.True(t, ok)
	assert.Equal(t, "A-1", sku)
}

func TestJSONExtractor_PreservesTopLevelFieldOrder(t *testing.T) {
	input := `[{"zebra": 1, "apple": 2, "mango": 3}]`

	batch, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, batch[0].Fields())
}

func TestJSONExtractor_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"scalar top level", `42`},
		{"array of scalars", `[1, 2]`},
		{"malformed", `{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONExtractor().Extract(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, flowerr.ErrParsingFailed)
		})
	}
}

func TestCSVExtractor_HeaderRow(t *testing.T) {
	input := "id,price,in_stock\np101,9.99,true\np102,19.99,false\n"

	batch, err := NewCSVExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, []string{"id", "price", "in_stock"}, batch[0].Fields())

	// Values stay as strings; type detection happens downstream.
	price, _ := batch[0].Get("price")
	assert.Equal(t, "9.99", price)

	inStock, _ := batch[1].Get("in_stock")
	assert.Equal(t, "false", inStock)
}

func TestCSVExtractor_EmptyCellsBecomeNull(t *testing.T) {
	input := "id,email\np101,\np102,a@b.com\n"

	batch, err := NewCSVExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	email, ok := batch[0].Get("email")
	require.True(t, ok)
	assert.Nil(t, email)
}

func TestCSVExtractor_NoHeader(t *testing.T) {
	ex := NewCSVExtractor()
	ex.NoHeader = true

	batch, err := ex.Extract(context.Background(), strings.NewReader("p101,9.99\np102,19.99\n"))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, []string{"column_1", "column_2"}, batch[0].Fields())
	id, _ := batch[0].Get("column_1")
	assert.Equal(t, "p101", id)
}

func TestCSVExtractor_CustomDelimiter(t *testing.T) {
	ex := NewCSVExtractor()
	ex.Delimiter = ';'

	batch, err := ex.Extract(context.Background(), strings.NewReader("id;price\np101;9.99\n"))
	require.NoError(t, err)
	require.Len(t, batch, 1)

	price, _ := batch[0].Get("price")
	assert.Equal(t, "9.99", price)
}

func TestCSVExtractor_RaggedRows(t *testing.T) {
	input := "id,price,stock\np101,9.99\np102,19.99,3,extra\n"

	batch, err := NewCSVExtractor().Extract(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.False(t, batch[0].Has("stock"))

	stock, ok := batch[1].Get("stock")
	require.True(t, ok)
	assert.Equal(t, "3", stock)
}

func TestForPath(t *testing.T) {
	ex, err := ForPath("data/products.json")
	require.NoError(t, err)
	assert.IsType(t, &JSONExtractor{}, ex)

	ex, err = ForPath("data/EMPLOYEES.CSV")
	require.NoError(t, err)
	assert.IsType(t, &CSVExtractor{}, ex)

	_, err = ForPath("data/report.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, flowerr.ErrUnsupportedFormat)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "p101"}]`), 0o600))

	batch, err := FromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	_, err = FromFile(context.Background(), filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestChunk(t *testing.T) {
	batch := types.Batch{
		types.RecordFromPairs("id", "p101"),
		types.RecordFromPairs("id", "p102"),
		types.RecordFromPairs("id", "p103"),
		types.RecordFromPairs("id", "p104"),
		types.RecordFromPairs("id", "p105"),
	}

	chunks := Chunk(batch, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)

	id, _ := chunks[2][0].Get("id")
	assert.Equal(t, "p105", id)

	assert.Nil(t, Chunk(nil, 2))
	assert.Len(t, Chunk(batch, 0), 1)
	assert.Len(t, Chunk(batch, 10), 1)
}
