// pkg/meta/meta_test.go

package meta

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/object"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor(id, name string) *Descriptor {
	return &Descriptor{
		ID:         id,
		Name:       name,
		CellType:   chunk.TypeInt,
		NRows:      1000,
		NCols:      700,
		ChunkNRows: 256,
		ChunkNCols: 512,
		Dimensions: UnitDimensions(1000, 700),
		NoData:     FormatNoData(-9999),
	}
}

func TestChunkGeometry(t *testing.T) {
	d := testDescriptor("g", "dem")
	require.NoError(t, d.Validate())
	assert.Equal(t, int64(4), d.NChunkRows())
	assert.Equal(t, int64(2), d.NChunkCols())
	assert.Len(t, d.ChunkIDs(), 8)

	id, r, c := d.ChunkOf(999, 513)
	assert.Equal(t, chunk.ID{Row: 3, Col: 1}, id)
	assert.Equal(t, 999-768, r)
	assert.Equal(t, 1, c)

	rows, cols := d.ChunkExtent(chunk.ID{Row: 3, Col: 1})
	assert.Equal(t, 1000-768, rows)
	assert.Equal(t, 700-512, cols)
	rows, cols = d.ChunkExtent(chunk.ID{Row: 0, Col: 0})
	assert.Equal(t, 256, rows)
	assert.Equal(t, 512, cols)

	// every cell maps to exactly one chunk
	seen := make(map[chunk.ID]int64)
	for row := int64(0); row < d.NRows; row += 7 {
		for col := int64(0); col < d.NCols; col += 11 {
			id, r, c := d.ChunkOf(row, col)
			r0, c0 := d.ChunkOrigin(id)
			assert.Equal(t, row, r0+int64(r))
			assert.Equal(t, col, c0+int64(c))
			seen[id]++
		}
	}
	assert.Len(t, seen, 8)

	assert.True(t, d.Contains(0, 0))
	assert.False(t, d.Contains(1000, 0))
	assert.False(t, d.Contains(0, -1))
}

func TestValidate(t *testing.T) {
	d := testDescriptor("g", "dem")
	d.ChunkNRows = 0
	assert.Error(t, d.Validate())
	d = testDescriptor("g", "dem")
	d.NCols = 0
	assert.Error(t, d.Validate())
	d = testDescriptor("", "dem")
	assert.Error(t, d.Validate())
	d = testDescriptor("g", "dem")
	d.Dimensions.CellSize = decimal.Zero
	assert.Error(t, d.Validate())
}

func TestDimensions(t *testing.T) {
	dim := NewDimensions(decimal.RequireFromString("100.5"), decimal.RequireFromString("-20"),
		decimal.RequireFromString("0.25"), 40, 80)
	assert.Equal(t, "120.5", dim.XMax.String())
	assert.Equal(t, "-10", dim.YMax.String())

	assert.Equal(t, int64(0), dim.Col(decimal.RequireFromString("100.5")))
	assert.Equal(t, int64(1), dim.Col(decimal.RequireFromString("100.75")))
	assert.Equal(t, int64(-1), dim.Col(decimal.RequireFromString("100.4")))
	assert.Equal(t, int64(39), dim.Row(decimal.RequireFromString("-10.01")))
	assert.Equal(t, "100.625", dim.CellX(0).String())
	assert.Equal(t, "-19.875", dim.CellY(0).String())

	for col := int64(0); col < 80; col++ {
		assert.Equal(t, col, dim.Col(dim.CellX(col)))
	}
	assert.True(t, dim.SameGrid(dim))
	assert.False(t, dim.SameGrid(UnitDimensions(40, 80)))
}

func TestDescriptorJSON(t *testing.T) {
	d := testDescriptor("g", "dem")
	d.CellType = chunk.TypeDouble
	d.NoData = FormatNoData(-math.MaxFloat64)
	d.Statistics.Add(3)
	d.Statistics.Add(-1)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"CellType":"double"`)

	var d2 Descriptor
	require.NoError(t, json.Unmarshal(data, &d2))
	assert.Equal(t, chunk.TypeDouble, d2.CellType)
	assert.True(t, d.Dimensions.SameGrid(d2.Dimensions))
	nd, err := ParseNoData(d2.NoData)
	require.NoError(t, err)
	assert.Equal(t, -math.MaxFloat64, nd)
	assert.Equal(t, Statistics{Min: -1, Max: 3, Sum: 2, Count: 2}, d2.Statistics)
	assert.Equal(t, 1.0, d2.Statistics.Mean())
}

func TestFormatInit(t *testing.T) {
	blob, _ := object.CreateStorage("mem", t.Name(), "", "")
	m := NewClient(blob)
	_, err := m.Load()
	assert.Equal(t, ErrNotFormatted, err)

	f := Format{Name: "test", UUID: "u1", Storage: "mem", Compression: "zstd", SecretKey: "s"}
	require.NoError(t, m.Init(f, false))
	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, f, *loaded)

	// credentials may change, the rest may not
	f2 := f
	f2.UUID = "u2"
	f2.SecretKey = "t"
	require.NoError(t, m.Init(f2, false))
	loaded, _ = m.Load()
	assert.Equal(t, "u1", loaded.UUID)
	assert.Equal(t, "t", loaded.SecretKey)

	f2.Compression = "lz4"
	assert.Error(t, m.Init(f2, false))
	require.NoError(t, m.Init(f2, true))
	loaded, _ = m.Load()
	assert.Equal(t, "lz4", loaded.Compression)

	rows, cols := loaded.ChunkSize()
	assert.Equal(t, int32(DefaultChunkSize), rows)
	assert.Equal(t, int32(DefaultChunkSize), cols)

	loaded.RemoveSecret()
	assert.Equal(t, "removed", loaded.SecretKey)
	assert.Equal(t, "", loaded.EncryptKey)
}

func TestGrids(t *testing.T) {
	blob, _ := object.CreateStorage("mem", t.Name(), "", "")
	m := NewClient(blob)
	require.NoError(t, m.SaveGrid(testDescriptor("id-a", "dem")))
	require.NoError(t, m.SaveGrid(testDescriptor("id-b", "slope")))
	require.NoError(t, blob.Put("id-a/chunks/0_0", bytes.NewReader([]byte{1})))
	require.NoError(t, blob.Put("id-a/chunks/0_1", bytes.NewReader([]byte{2})))

	grids, err := m.ListGrids()
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, "id-a", grids[0].ID)
	assert.Equal(t, "id-b", grids[1].ID)

	d, err := m.LoadGrid("id-b")
	require.NoError(t, err)
	assert.Equal(t, "slope", d.Name)
	d, err = m.LoadGrid("dem")
	require.NoError(t, err)
	assert.Equal(t, "id-a", d.ID)
	_, err = m.LoadGrid("aspect")
	assert.True(t, errors.Is(err, ErrGridNotFound))

	require.NoError(t, m.SaveGrid(testDescriptor("id-c", "dem")))
	_, err = m.LoadGrid("dem")
	assert.Error(t, err, "ambiguous name")

	n, err := m.DeleteGrid("id-a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	objs, _ := blob.List("id-a/")
	assert.Empty(t, objs)
	_, err = m.DeleteGrid("id-a")
	assert.True(t, errors.Is(err, ErrGridNotFound))
}
