// pkg/grid/grid.go

package grid

import (
	"math"
	"sort"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avegrid")

var (
	ErrOutOfRange = errors.New("cell out of range")
	ErrCellType   = errors.New("cell type mismatch")
	ErrClosed     = errors.New("grid is closed")
)

// Grid is a 2-D raster of cells of type T, partitioned into chunks that are loaded
// on demand and evicted by its environment. A Grid is not safe for concurrent use.
type Grid[T comparable] struct {
	e     *env.Environment
	store chunk.Store
	meta  meta.Meta
	kind  chunk.Kind[T]
	desc  meta.Descriptor

	noData  T
	fill    T
	factory chunk.Factory[T]
	upgrade chunk.Factory[T]

	chunks   map[chunk.ID]*chunk.Chunk[T]
	resident map[chunk.ID]*chunk.Chunk[T]
	// chunks known to be absent from the store; every chunk is for a new grid
	absent map[chunk.ID]struct{}
	fresh  bool
	closed bool

	retired  uint64 // mods of chunks replaced by an upgrade
	scanMods uint64 // mods() when the statistics were last computed
}

// DefaultNoData is the no-data value of cell type t.
func DefaultNoData(t chunk.CellType) float64 {
	switch t {
	case chunk.TypeBoolean:
		return float64(chunk.Null)
	case chunk.TypeInt:
		return math.MinInt32
	case chunk.TypeDouble:
		return -math.MaxFloat64
	}
	return 0
}

// New creates an empty nrows x ncols grid registered with e.
func New[T comparable](e *env.Environment, kind chunk.Kind[T], store chunk.Store, nrows, ncols int64, opts ...Option) (*Grid[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	noData := DefaultNoData(kind.Type())
	if o.noData != nil {
		noData = *o.noData
	}
	fill := noData
	if o.fill != nil {
		fill = *o.fill
	}
	dims := meta.UnitDimensions(nrows, ncols)
	if o.dims != nil {
		dims = *o.dims
	}
	now := utils.Now()
	desc := meta.Descriptor{
		ID:         uuid.New().String(),
		Name:       o.name,
		CellType:   kind.Type(),
		NRows:      nrows,
		NCols:      ncols,
		ChunkNRows: o.chunkRows,
		ChunkNCols: o.chunkCols,
		Dimensions: dims,
		NoData:     meta.FormatNoData(noData),
		Fill:       meta.FormatNoData(fill),
		Statistics: meta.Statistics{Stale: true},
		Created:    now,
		Modified:   now,
	}
	if desc.Name == "" {
		desc.Name = desc.ID
	}
	g, err := newGrid(e, kind, store, o.meta, desc, o.initRepr, o.upgrade)
	if err != nil {
		return nil, err
	}
	g.fresh = true
	logger.Debugf("created %s grid %s (%s) of %dx%d", kind.Type(), desc.Name, desc.ID, nrows, ncols)
	return g, nil
}

func newGrid[T comparable](e *env.Environment, kind chunk.Kind[T], store chunk.Store, m meta.Meta, desc meta.Descriptor, initRepr, upgrade chunk.Repr) (*Grid[T], error) {
	if upgrade == chunk.Singlet {
		return nil, errors.New("chunks cannot be upgraded to singlets")
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.CellType != kind.Type() {
		return nil, errors.Wrapf(ErrCellType, "grid %s holds %s cells, not %s", desc.ID, desc.CellType, kind.Type())
	}
	noData, err := meta.ParseNoData(desc.NoData)
	if err != nil {
		return nil, errors.Wrapf(err, "no-data of grid %s", desc.ID)
	}
	fill := noData
	if desc.Fill != "" {
		if fill, err = meta.ParseNoData(desc.Fill); err != nil {
			return nil, errors.Wrapf(err, "fill of grid %s", desc.ID)
		}
	}
	g := &Grid[T]{
		e:        e,
		store:    store,
		meta:     m,
		kind:     kind,
		desc:     desc,
		noData:   kind.FromFloat(noData),
		fill:     kind.FromFloat(fill),
		chunks:   make(map[chunk.ID]*chunk.Chunk[T]),
		resident: make(map[chunk.ID]*chunk.Chunk[T]),
		absent:   make(map[chunk.ID]struct{}),
	}
	g.factory = chunk.NewFactory(kind, initRepr, g.fill)
	g.upgrade = chunk.NewFactory(kind, upgrade, g.fill)
	if err := e.Register(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Open reopens a grid persisted with Write. Its chunks are loaded on demand.
func Open[T comparable](e *env.Environment, kind chunk.Kind[T], store chunk.Store, m meta.Meta, idOrName string, opts ...Option) (*Grid[T], error) {
	desc, err := m.LoadGrid(idOrName)
	if err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g, err := newGrid(e, kind, store, m, *desc, o.initRepr, o.upgrade)
	if err != nil {
		return nil, err
	}
	logger.Debugf("opened %s grid %s (%s)", kind.Type(), desc.Name, desc.ID)
	return g, nil
}

func NewBinary(e *env.Environment, store chunk.Store, nrows, ncols int64, opts ...Option) (*Grid[bool], error) {
	return New(e, chunk.Binary, store, nrows, ncols, opts...)
}

func NewBoolean(e *env.Environment, store chunk.Store, nrows, ncols int64, opts ...Option) (*Grid[chunk.Tristate], error) {
	return New(e, chunk.Boolean, store, nrows, ncols, opts...)
}

func NewInt(e *env.Environment, store chunk.Store, nrows, ncols int64, opts ...Option) (*Grid[int32], error) {
	return New(e, chunk.Int, store, nrows, ncols, opts...)
}

func NewDouble(e *env.Environment, store chunk.Store, nrows, ncols int64, opts ...Option) (*Grid[float64], error) {
	return New(e, chunk.Double, store, nrows, ncols, opts...)
}

func OpenBinary(e *env.Environment, store chunk.Store, m meta.Meta, idOrName string, opts ...Option) (*Grid[bool], error) {
	return Open(e, chunk.Binary, store, m, idOrName, opts...)
}

func OpenBoolean(e *env.Environment, store chunk.Store, m meta.Meta, idOrName string, opts ...Option) (*Grid[chunk.Tristate], error) {
	return Open(e, chunk.Boolean, store, m, idOrName, opts...)
}

func OpenInt(e *env.Environment, store chunk.Store, m meta.Meta, idOrName string, opts ...Option) (*Grid[int32], error) {
	return Open(e, chunk.Int, store, m, idOrName, opts...)
}

func OpenDouble(e *env.Environment, store chunk.Store, m meta.Meta, idOrName string, opts ...Option) (*Grid[float64], error) {
	return Open(e, chunk.Double, store, m, idOrName, opts...)
}

func (g *Grid[T]) ID() string                  { return g.desc.ID }
func (g *Grid[T]) Name() string                { return g.desc.Name }
func (g *Grid[T]) Kind() chunk.Kind[T]         { return g.kind }
func (g *Grid[T]) NoData() T                   { return g.noData }
func (g *Grid[T]) Fill() T                     { return g.fill }
func (g *Grid[T]) NRows() int64                { return g.desc.NRows }
func (g *Grid[T]) NCols() int64                { return g.desc.NCols }
func (g *Grid[T]) Dimensions() meta.Dimensions { return g.desc.Dimensions }
func (g *Grid[T]) Env() *env.Environment       { return g.e }
func (g *Grid[T]) Store() chunk.Store          { return g.store }
func (g *Grid[T]) Meta() meta.Meta             { return g.meta }

// Descriptor returns a copy of the grid's descriptor.
func (g *Grid[T]) Descriptor() meta.Descriptor {
	g.checkStale()
	return g.desc
}

// mods counts every cell change made through the grid or its chunks.
func (g *Grid[T]) mods() uint64 {
	n := g.retired
	for _, c := range g.chunks {
		n += c.Mods()
	}
	return n
}

// checkStale marks the statistics stale when a chunk changed since the last scan.
// Writes through Chunk bypass SetCell.
func (g *Grid[T]) checkStale() {
	if g.mods() != g.scanMods {
		g.desc.Statistics.Stale = true
	}
}

// IsNoData reports whether v is the no-data value.
func (g *Grid[T]) IsNoData(v T) bool { return chunk.Same(v, g.noData) }

// ChunkIDs lists every chunk of the grid.
func (g *Grid[T]) ChunkIDs() []chunk.ID { return g.desc.ChunkIDs() }

// ChunkExtent is the logical size of chunk id, smaller than the chunk size on the
// north and east edges.
func (g *Grid[T]) ChunkExtent(id chunk.ID) (int, int) { return g.desc.ChunkExtent(id) }

// ChunkOrigin is the grid position of cell (0, 0) of chunk id.
func (g *Grid[T]) ChunkOrigin(id chunk.ID) (int64, int64) { return g.desc.ChunkOrigin(id) }

func (g *Grid[T]) validID(id chunk.ID) error {
	if id.Row < 0 || id.Col < 0 || int64(id.Row) >= g.desc.NChunkRows() || int64(id.Col) >= g.desc.NChunkCols() {
		return errors.Wrapf(ErrOutOfRange, "chunk %s of grid %s", id, g.desc.Name)
	}
	return nil
}

// lookup returns the chunk id, or nil when it was never written and reads as the
// fill value.
func (g *Grid[T]) lookup(id chunk.ID) (*chunk.Chunk[T], error) {
	if c, ok := g.chunks[id]; ok {
		return c, nil
	}
	if g.fresh {
		return nil, nil
	}
	if _, ok := g.absent[id]; ok {
		return nil, nil
	}
	exists, err := g.store.Exists(g.desc.ID, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		g.absent[id] = struct{}{}
		return nil, nil
	}
	c := chunk.NewCached(g.kind, g.desc.ID, id, int(g.desc.ChunkNRows), int(g.desc.ChunkNCols), g.store.Location(g.desc.ID, id))
	g.chunks[id] = c
	return c, nil
}

func (g *Grid[T]) allocSize(f chunk.Factory[T]) int64 {
	if f.Repr() == chunk.Dense {
		return int64(g.desc.ChunkNRows) * int64(g.desc.ChunkNCols) * int64(g.kind.Width())
	}
	return int64(g.kind.Width())
}

// Chunk returns chunk id resident, loading it from the store or creating it first.
// It fails with env.ErrMemoryExhausted when the environment cannot afford it.
func (g *Grid[T]) Chunk(id chunk.ID) (*chunk.Chunk[T], error) {
	if g.closed {
		return nil, ErrClosed
	}
	if err := g.validID(id); err != nil {
		return nil, err
	}
	c, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if err = g.e.Allocate(g.allocSize(g.factory)); err != nil {
			return nil, err
		}
		c = g.factory.Create(g.desc.ID, id, int(g.desc.ChunkNRows), int(g.desc.ChunkNCols))
		g.chunks[id] = c
		g.resident[id] = c
		delete(g.absent, id)
		return c, nil
	}
	if c.Resident() {
		return c, nil
	}
	if err = g.e.Allocate(c.PayloadSize()); err != nil {
		return nil, err
	}
	if err = c.Load(g.store); err != nil {
		return nil, err
	}
	g.resident[id] = c
	return c, nil
}

// ChunkIfExists is Chunk for chunks that hold written cells. A chunk that was never
// written reads as the fill value; it is returned as nil and nothing is allocated.
func (g *Grid[T]) ChunkIfExists(id chunk.ID) (*chunk.Chunk[T], error) {
	if g.closed {
		return nil, ErrClosed
	}
	if err := g.validID(id); err != nil {
		return nil, err
	}
	c, err := g.lookup(id)
	if c == nil || err != nil {
		return nil, err
	}
	return g.Chunk(id)
}

// Cell returns the value at (row, col). Cells outside the grid read as no-data.
func (g *Grid[T]) Cell(row, col int64) (T, error) {
	if g.closed {
		return g.noData, ErrClosed
	}
	if !g.desc.Contains(row, col) {
		return g.noData, nil
	}
	id, r, c := g.desc.ChunkOf(row, col)
	if ch, ok := g.resident[id]; ok {
		return ch.Get(r, c)
	}
	ch, err := g.lookup(id)
	if err != nil {
		return g.noData, err
	}
	if ch == nil {
		return g.fill, nil
	}
	if ch, err = g.Chunk(id); err != nil {
		return g.noData, err
	}
	return ch.Get(r, c)
}

// SetCell writes v at (row, col) and returns the previous value. A differing value
// written into a singlet chunk upgrades the chunk first.
func (g *Grid[T]) SetCell(row, col int64, v T) (T, error) {
	if g.closed {
		return g.noData, ErrClosed
	}
	if !g.desc.Contains(row, col) {
		return g.noData, errors.Wrapf(ErrOutOfRange, "(%d, %d) in %dx%d grid %s", row, col, g.desc.NRows, g.desc.NCols, g.desc.Name)
	}
	id, r, c := g.desc.ChunkOf(row, col)
	ch, ok := g.resident[id]
	if !ok {
		var err error
		if ch, err = g.Chunk(id); err != nil {
			return g.noData, err
		}
	}
	old, err := ch.Set(r, c, v)
	if errors.Is(err, chunk.ErrRepresentationMismatch) {
		if ch, err = g.upgradeChunk(ch); err != nil {
			return old, err
		}
		old, err = ch.Set(r, c, v)
	}
	if err != nil {
		return old, err
	}
	if !chunk.Same(old, v) {
		g.desc.Statistics.Stale = true
	}
	return old, nil
}

func (g *Grid[T]) upgradeChunk(c *chunk.Chunk[T]) (*chunk.Chunk[T], error) {
	if err := g.e.Allocate(g.allocSize(g.upgrade)); err != nil {
		return nil, err
	}
	u, err := g.upgrade.CreateFrom(c, c.ID())
	if err != nil {
		return nil, err
	}
	logger.Debugf("upgraded chunk %s of %s from %s to %s", c.ID(), g.desc.Name, c.Repr(), u.Repr())
	g.retired += c.Mods()
	g.chunks[c.ID()] = u
	g.resident[c.ID()] = u
	return u, nil
}

// ResidentChunks lists the resident chunks in row-major chunk order.
func (g *Grid[T]) ResidentChunks() []chunk.ID {
	ids := make([]chunk.ID, 0, len(g.resident))
	for id := range g.resident {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Row != ids[j].Row {
			return ids[i].Row < ids[j].Row
		}
		return ids[i].Col < ids[j].Col
	})
	return ids
}

func (g *Grid[T]) ResidentBytes() int64 {
	var n int64
	for _, c := range g.resident {
		n += c.Size()
	}
	return n
}

// CacheChunk evicts chunk id, persisting it when dirty. Protected chunks are refused.
func (g *Grid[T]) CacheChunk(id chunk.ID) (bool, error) {
	if g.e.IsProtected(g.desc.ID, id) {
		return false, nil
	}
	c, ok := g.resident[id]
	if !ok {
		return false, nil
	}
	evicted, err := c.Evict(g.store)
	if err != nil {
		return false, err
	}
	if evicted {
		delete(g.resident, id)
	}
	return evicted, nil
}

// Write persists every dirty chunk, keeping them resident, then the descriptor.
func (g *Grid[T]) Write() error {
	if g.closed {
		return ErrClosed
	}
	var n int
	for _, id := range g.ResidentChunks() {
		c := g.resident[id]
		if c.CacheUpToDate() {
			continue
		}
		if err := c.Flush(g.store); err != nil {
			return err
		}
		n++
	}
	g.checkStale()
	g.desc.Modified = utils.Now()
	logger.Debugf("wrote %d chunks of grid %s", n, g.desc.Name)
	if g.meta == nil {
		return nil
	}
	return g.meta.SaveGrid(&g.desc)
}

// Close unregisters the grid and drops its chunks. Unwritten changes are lost.
func (g *Grid[T]) Close() {
	if g.closed {
		return
	}
	g.e.Unregister(g)
	g.chunks = nil
	g.resident = nil
	g.closed = true
}
