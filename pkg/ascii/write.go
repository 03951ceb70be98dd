// pkg/ascii/write.go

package ascii

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func formatter(t chunk.CellType, places int32) func(float64) string {
	if t != chunk.TypeDouble {
		return func(f float64) string { return strconv.FormatInt(int64(f), 10) }
	}
	if places < 0 {
		return func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
	}
	return func(f float64) string {
		return decimal.NewFromFloat(f).StringFixedBank(places)
	}
}

// Write exports g as an ESRI ASCII grid, north row first. Cells of other types
// than double are written as integers.
func Write[T comparable](w io.Writer, e *env.Environment, g *grid.Grid[T], opt Options) error {
	kind := g.Kind()
	format := formatter(kind.Type(), opt.Places)
	dims := g.Dimensions()
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "ncols %d\n", g.NCols())
	fmt.Fprintf(out, "nrows %d\n", g.NRows())
	fmt.Fprintf(out, "xllcorner %s\n", dims.XMin)
	fmt.Fprintf(out, "yllcorner %s\n", dims.YMin)
	fmt.Fprintf(out, "cellsize %s\n", dims.CellSize)
	fmt.Fprintf(out, "NODATA_value %s\n", format(kind.Float(g.NoData())))

	if opt.Bar != nil {
		opt.Bar.SetTotal(g.NRows(), false)
	}
	vals := make([]T, g.NCols())
	for row := g.NRows() - 1; row >= 0; row-- {
		if _, err := e.CheckAndMaybeFreeMemory(); err != nil {
			return err
		}
		err := e.Do(opt.Retry, nil, func() error {
			for c := range vals {
				v, err := g.Cell(row, int64(c))
				if err != nil {
					return err
				}
				vals[c] = v
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "export row %d", row)
		}
		for c, v := range vals {
			if c > 0 {
				out.WriteByte(' ')
			}
			out.WriteString(format(kind.Float(v)))
		}
		out.WriteByte('\n')
		if opt.Bar != nil {
			opt.Bar.Increment()
		}
	}
	return out.Flush()
}
