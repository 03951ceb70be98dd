// pkg/ascii/read.go

package ascii

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vbauerster/mpb/v8"
)

var logger = utils.GetLogger("avegrid")

// ErrFormat is returned for input that is not an ESRI ASCII grid.
var ErrFormat = errors.New("invalid ESRI ASCII grid")

// Options of Read and Write. Name, chunk size and Meta apply to imported grids.
// Retry runs each row inside the recovery protocol. Places rounds exported doubles,
// a negative value keeps their shortest exact form. Bar, if set, advances once per
// row.
type Options struct {
	Name      string
	ChunkRows int32
	ChunkCols int32
	Meta      meta.Meta
	Retry     bool
	Places    int32
	Bar       *mpb.Bar
}

// Header is the header of an ESRI ASCII grid. Center is set when the lower left
// reference is a cell centre (xllcenter, yllcenter).
type Header struct {
	NCols     int64
	NRows     int64
	XLL       decimal.Decimal
	YLL       decimal.Decimal
	CellSize  decimal.Decimal
	Center    bool
	NoData    float64
	HasNoData bool
}

// Dimensions converts the lower left reference to the grid's south west corner.
func (h *Header) Dimensions() meta.Dimensions {
	x, y := h.XLL, h.YLL
	if h.Center {
		half := h.CellSize.Div(decimal.NewFromInt(2))
		x, y = x.Sub(half), y.Sub(half)
	}
	return meta.NewDimensions(x, y, h.CellSize, h.NRows, h.NCols)
}

type scanner struct {
	*bufio.Scanner
	peeked *string
}

func (s *scanner) next() (string, bool) {
	if s.peeked != nil {
		t := *s.peeked
		s.peeked = nil
		return t, true
	}
	if !s.Scan() {
		return "", false
	}
	return s.Text(), true
}

func (s *scanner) unread(t string) {
	s.peeked = &t
}

func readHeader(s *scanner) (*Header, error) {
	h := &Header{}
	seen := make(map[string]bool)
	for {
		key, ok := s.next()
		if !ok {
			break
		}
		k := strings.ToLower(key)
		if k == "" || (k[0] < 'a' || k[0] > 'z') {
			s.unread(key)
			break
		}
		val, ok := s.next()
		if !ok {
			return nil, errors.Wrapf(ErrFormat, "no value for %s", key)
		}
		var err error
		switch k {
		case "ncols":
			h.NCols, err = strconv.ParseInt(val, 10, 64)
		case "nrows":
			h.NRows, err = strconv.ParseInt(val, 10, 64)
		case "xllcorner", "xllcenter":
			h.XLL, err = decimal.NewFromString(val)
			h.Center = k == "xllcenter"
		case "yllcorner", "yllcenter":
			h.YLL, err = decimal.NewFromString(val)
		case "cellsize":
			h.CellSize, err = decimal.NewFromString(val)
		case "nodata_value":
			h.NoData, err = strconv.ParseFloat(val, 64)
			h.HasNoData = true
		default:
			return nil, errors.Wrapf(ErrFormat, "unknown header %s", key)
		}
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "%s %s: %s", key, val, err)
		}
		seen[strings.TrimSuffix(strings.TrimSuffix(k, "corner"), "center")] = true
	}
	for _, k := range []string{"ncols", "nrows", "xll", "yll", "cellsize"} {
		if !seen[k] {
			return nil, errors.Wrapf(ErrFormat, "missing %s", k)
		}
	}
	if h.NCols <= 0 || h.NRows <= 0 || !h.CellSize.IsPositive() {
		return nil, errors.Wrapf(ErrFormat, "grid of %dx%d cells of size %s", h.NRows, h.NCols, h.CellSize)
	}
	if h.NCols > math.MaxInt32 || h.NRows > math.MaxInt32 {
		return nil, errors.Wrapf(ErrFormat, "grid of %dx%d cells is too large", h.NRows, h.NCols)
	}
	return h, nil
}

// Read imports an ESRI ASCII grid into a new double grid. Rows are listed from
// north to south in the file, so the first one becomes the last row of the grid.
// The file's NODATA_value becomes the grid's no-data value.
func Read(r io.Reader, e *env.Environment, store chunk.Store, opt Options) (*grid.Grid[float64], error) {
	s := &scanner{Scanner: bufio.NewScanner(r)}
	s.Buffer(make([]byte, 64<<10), 1<<20)
	s.Split(bufio.ScanWords)
	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	// one row is buffered at a time
	err = e.Do(opt.Retry, nil, func() error { return e.Allocate(h.NCols * 8) })
	if err != nil {
		return nil, errors.Wrapf(err, "buffer a row of %d values", h.NCols)
	}
	opts := []grid.Option{grid.WithName(opt.Name), grid.WithDimensions(h.Dimensions())}
	if opt.ChunkRows > 0 && opt.ChunkCols > 0 {
		opts = append(opts, grid.WithChunkSize(opt.ChunkRows, opt.ChunkCols))
	}
	if h.HasNoData {
		opts = append(opts, grid.WithNoData(h.NoData))
	}
	if opt.Meta != nil {
		opts = append(opts, grid.WithMeta(opt.Meta))
	}
	g, err := grid.NewDouble(e, store, h.NRows, h.NCols, opts...)
	if err != nil {
		return nil, err
	}
	if opt.Bar != nil {
		opt.Bar.SetTotal(h.NRows, false)
	}
	vals := make([]float64, h.NCols)
	for i := int64(0); i < h.NRows; i++ {
		row := h.NRows - 1 - i
		for c := range vals {
			tok, ok := s.next()
			if !ok {
				g.Close()
				if err := s.Err(); err != nil {
					return nil, err
				}
				return nil, errors.Wrapf(ErrFormat, "%d values, expected %d", i*h.NCols+int64(c), h.NRows*h.NCols)
			}
			if vals[c], err = strconv.ParseFloat(tok, 64); err != nil {
				g.Close()
				return nil, errors.Wrapf(ErrFormat, "row %d col %d: %s", i, c, err)
			}
		}
		if _, err = e.CheckAndMaybeFreeMemory(); err != nil {
			g.Close()
			return nil, err
		}
		err = e.Do(opt.Retry, nil, func() error {
			for c, v := range vals {
				if _, err := g.SetCell(row, int64(c), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			g.Close()
			return nil, errors.Wrapf(err, "import row %d", i)
		}
		if opt.Bar != nil {
			opt.Bar.Increment()
		}
	}
	if tok, ok := s.next(); ok {
		g.Close()
		return nil, errors.Wrapf(ErrFormat, "trailing value %q", tok)
	}
	logger.Debugf("imported %dx%d grid %s", h.NRows, h.NCols, g.Name())
	return g, nil
}
