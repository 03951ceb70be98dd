// pkg/grid/options.go

package grid

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/meta"
)

type options struct {
	name      string
	chunkRows int32
	chunkCols int32
	dims      *meta.Dimensions
	noData    *float64
	fill      *float64
	initRepr  chunk.Repr
	upgrade   chunk.Repr
	meta      meta.Meta
}

func defaultOptions() options {
	return options{
		chunkRows: meta.DefaultChunkSize,
		chunkCols: meta.DefaultChunkSize,
		initRepr:  chunk.Dense,
		upgrade:   chunk.Dense,
	}
}

// Option configures a new grid.
type Option func(*options)

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithChunkSize sets the shape of the chunks.
func WithChunkSize(rows, cols int32) Option {
	return func(o *options) { o.chunkRows, o.chunkCols = rows, cols }
}

func WithDimensions(d meta.Dimensions) Option {
	return func(o *options) { o.dims = &d }
}

// WithNoData overrides the default no-data value of the cell type.
func WithNoData(v float64) Option {
	return func(o *options) { o.noData = &v }
}

// WithFill sets the initial value of every cell, no-data by default.
func WithFill(v float64) Option {
	return func(o *options) { o.fill = &v }
}

// WithRepresentation sets the representation chunks are created with, and the one a
// singlet chunk is upgraded to when a differing value is written into it.
func WithRepresentation(initial, upgrade chunk.Repr) Option {
	return func(o *options) { o.initRepr, o.upgrade = initial, upgrade }
}

// WithMeta lets Write persist the descriptor.
func WithMeta(m meta.Meta) Option {
	return func(o *options) { o.meta = m }
}
