// pkg/ascii/ascii_test.go

package ascii

import (
	"bytes"
	"strings"
	"testing"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/compress"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/object"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `ncols 4
nrows 3
xllcorner 1000.5
yllcorner -20
cellsize 2.5
NODATA_value -9999
1 2 3 4
5 -9999 7 8
9 10 11 12.25
`

func setup(t *testing.T) (*env.Environment, chunk.Store, meta.Meta) {
	conf := env.DefaultConfig()
	conf.MemoryBudget = 64 << 20
	conf.MinHeadroom = 0
	conf.ReserveSize = 0
	e, err := env.New(conf)
	require.NoError(t, err)
	blob, err := object.CreateStorage("mem", t.Name(), "", "")
	require.NoError(t, err)
	return e, chunk.NewStore(blob, compress.NewCompressor("zstd")), meta.NewClient(blob)
}

func TestRead(t *testing.T) {
	e, store, m := setup(t)
	g, err := Read(strings.NewReader(sample), e, store, Options{Name: "dem", ChunkRows: 2, ChunkCols: 2, Meta: m, Retry: true})
	require.NoError(t, err)
	assert.Equal(t, "dem", g.Name())
	assert.Equal(t, int64(3), g.NRows())
	assert.Equal(t, int64(4), g.NCols())
	assert.Equal(t, -9999.0, g.NoData())

	dims := g.Dimensions()
	assert.Equal(t, "1000.5", dims.XMin.String())
	assert.Equal(t, "1010.5", dims.XMax.String())
	assert.Equal(t, "-12.5", dims.YMax.String())

	// the first line is the northern row
	v, _ := g.Cell(2, 0)
	assert.Equal(t, 1.0, v)
	v, _ = g.Cell(0, 3)
	assert.Equal(t, 12.25, v)
	v, _ = g.Cell(1, 1)
	assert.True(t, g.IsNoData(v))

	require.NoError(t, g.Write())
	d, err := m.LoadGrid("dem")
	require.NoError(t, err)
	assert.Equal(t, g.ID(), d.ID)
}

func TestRoundTrip(t *testing.T) {
	e, store, _ := setup(t)
	g, err := Read(strings.NewReader(sample), e, store, Options{ChunkRows: 2, ChunkCols: 3})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, e, g, Options{Places: -1}))
	assert.Equal(t, sample, buf.String())

	_, err = e.CacheChunksExcept(nil)
	require.NoError(t, err)
	var again bytes.Buffer
	require.NoError(t, Write(&again, e, g, Options{Places: -1, Retry: true}))
	assert.Equal(t, buf.String(), again.String())
}

func TestWritePlacesAndInts(t *testing.T) {
	e, store, _ := setup(t)
	g, err := grid.NewInt(e, store, 2, 2, grid.WithChunkSize(2, 2), grid.WithNoData(-1))
	require.NoError(t, err)
	_, _ = g.SetCell(0, 0, 7)
	_, _ = g.SetCell(1, 1, 1000000)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, e, g, Options{Places: 3}))
	assert.Equal(t, "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\nNODATA_value -1\n-1 1000000\n7 -1\n", buf.String())

	d, err := grid.NewDouble(e, store, 1, 3, grid.WithChunkSize(1, 3), grid.WithNoData(-9999))
	require.NoError(t, err)
	_, _ = d.SetCell(0, 0, 1.0/3)
	_, _ = d.SetCell(0, 1, 2.5)
	buf.Reset()
	require.NoError(t, Write(&buf, e, d, Options{Places: 2}))
	assert.True(t, strings.HasSuffix(buf.String(), "NODATA_value -9999.00\n0.33 2.50 -9999.00\n"), buf.String())
}

func TestReadCenter(t *testing.T) {
	e, store, _ := setup(t)
	in := "NCOLS 2\nNROWS 1\nXLLCENTER 10\nYLLCENTER 20\nCELLSIZE 4\n1 2\n"
	g, err := Read(strings.NewReader(in), e, store, Options{})
	require.NoError(t, err)
	assert.Equal(t, "8", g.Dimensions().XMin.String())
	assert.Equal(t, "18", g.Dimensions().YMin.String())
	assert.Equal(t, -1.7976931348623157e308, g.NoData())
	v, _ := g.Cell(0, 1)
	assert.Equal(t, 2.0, v)
}

func TestReadErrors(t *testing.T) {
	e, store, _ := setup(t)
	for name, in := range map[string]string{
		"missing cellsize": "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\n1 2\n",
		"short":            "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"trailing":         "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"bad value":        "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 x\n",
		"bad header":       "ncols two\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n",
		"unknown header":   "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nbands 3\n1 2\n",
		"zero cellsize":    "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 0\n1 2\n",
	} {
		_, err := Read(strings.NewReader(in), e, store, Options{})
		assert.True(t, errors.Is(err, ErrFormat), name)
	}
	assert.Empty(t, e.Grids(), "failed imports are closed")
}

func TestReadHugeHeader(t *testing.T) {
	e, store, _ := setup(t)
	_, err := Read(strings.NewReader("ncols 3000000000\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n"), e, store, Options{})
	assert.True(t, errors.Is(err, ErrFormat))

	// a row of two billion doubles does not fit the budget
	for _, retry := range []bool{false, true} {
		_, err = Read(strings.NewReader("ncols 2000000000\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n"), e, store, Options{Retry: retry})
		assert.True(t, errors.Is(err, env.ErrMemoryExhausted), "retry %v", retry)
	}
	assert.Empty(t, e.Grids())
}
