// pkg/meta/dimensions.go

package meta

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dimensions is the georeference of a grid. Row 0 is the southernmost row and
// column 0 the westernmost, so YMin is the south edge of row 0.
type Dimensions struct {
	XMin     decimal.Decimal
	YMin     decimal.Decimal
	XMax     decimal.Decimal
	YMax     decimal.Decimal
	CellSize decimal.Decimal
}

// NewDimensions computes the extent of an nrows x ncols grid with its south west
// corner at (xmin, ymin).
func NewDimensions(xmin, ymin, cellsize decimal.Decimal, nrows, ncols int64) Dimensions {
	return Dimensions{
		XMin:     xmin,
		YMin:     ymin,
		XMax:     xmin.Add(cellsize.Mul(decimal.NewFromInt(ncols))),
		YMax:     ymin.Add(cellsize.Mul(decimal.NewFromInt(nrows))),
		CellSize: cellsize,
	}
}

// UnitDimensions places a grid at the origin with cells of size 1.
func UnitDimensions(nrows, ncols int64) Dimensions {
	return NewDimensions(decimal.Zero, decimal.Zero, decimal.NewFromInt(1), nrows, ncols)
}

func (d Dimensions) Validate() error {
	if !d.CellSize.IsPositive() {
		return fmt.Errorf("cell size %s is not positive", d.CellSize)
	}
	if d.XMax.LessThan(d.XMin) || d.YMax.LessThan(d.YMin) {
		return fmt.Errorf("empty extent (%s, %s) - (%s, %s)", d.XMin, d.YMin, d.XMax, d.YMax)
	}
	return nil
}

// CellX is the x coordinate of the centre of column col.
func (d Dimensions) CellX(col int64) decimal.Decimal {
	return d.XMin.Add(d.CellSize.Mul(decimal.NewFromInt(col).Add(decimal.NewFromFloat(0.5))))
}

// CellY is the y coordinate of the centre of row row.
func (d Dimensions) CellY(row int64) decimal.Decimal {
	return d.YMin.Add(d.CellSize.Mul(decimal.NewFromInt(row).Add(decimal.NewFromFloat(0.5))))
}

// Col returns the column containing x. Points on a cell boundary belong to the
// cell east of it.
func (d Dimensions) Col(x decimal.Decimal) int64 {
	return x.Sub(d.XMin).Div(d.CellSize).Floor().IntPart()
}

// Row returns the row containing y. Points on a cell boundary belong to the cell
// north of it.
func (d Dimensions) Row(y decimal.Decimal) int64 {
	return y.Sub(d.YMin).Div(d.CellSize).Floor().IntPart()
}

// SameGrid reports whether d and o describe the same cells.
func (d Dimensions) SameGrid(o Dimensions) bool {
	return d.XMin.Equal(o.XMin) && d.YMin.Equal(o.YMin) && d.XMax.Equal(o.XMax) &&
		d.YMax.Equal(o.YMax) && d.CellSize.Equal(o.CellSize)
}
