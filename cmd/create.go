// cmd/create.go

package main

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/meta"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func createFlags() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "create a grid with every cell set to one value",
		ArgsUsage: "STORE NAME",
		Action:    create,
		Flags: append([]cli.Flag{
			&cli.Int64Flag{
				Name:     "rows",
				Usage:    "number of rows",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "cols",
				Usage:    "number of columns",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "type",
				Value: "double",
				Usage: "cell type (binary, boolean, int, double)",
			},
			&cli.Float64Flag{
				Name:  "value",
				Usage: "initial value of every cell (default no-data)",
			},
			&cli.Float64Flag{
				Name:  "nodata",
				Usage: "no-data value (default depends on the cell type)",
			},
			&cli.StringFlag{
				Name:  "xll",
				Value: "0",
				Usage: "x of the south west corner",
			},
			&cli.StringFlag{
				Name:  "yll",
				Value: "0",
				Usage: "y of the south west corner",
			},
			&cli.StringFlag{
				Name:  "cellsize",
				Value: "1",
				Usage: "side of a cell",
			},
		}, chunkSizeFlags()...),
	}
}

func parseDecimal(c *cli.Context, name string) decimal.Decimal {
	d, err := decimal.NewFromString(c.String(name))
	if err != nil {
		logger.Fatalf("%s: %s", name, err)
	}
	return d
}

func create(c *cli.Context) error {
	setLoggerLevel(c)
	needArgs(c, 2, "STORE and NAME")
	s := openStore(c.Args().Get(0))
	name := c.Args().Get(1)
	t, err := chunk.ParseCellType(c.String("type"))
	if err != nil {
		logger.Fatalf("%s", err)
	}
	nrows, ncols := c.Int64("rows"), c.Int64("cols")
	dims := meta.NewDimensions(parseDecimal(c, "xll"), parseDecimal(c, "yll"), parseDecimal(c, "cellsize"), nrows, ncols)
	rows, cols := s.chunkSize(c)
	opts := []grid.Option{
		grid.WithName(name),
		grid.WithChunkSize(rows, cols),
		grid.WithDimensions(dims),
		grid.WithMeta(s.meta),
	}
	if c.IsSet("nodata") {
		opts = append(opts, grid.WithNoData(c.Float64("nodata")))
	}
	if c.IsSet("value") {
		opts = append(opts, grid.WithFill(c.Float64("value")), grid.WithRepresentation(chunk.Singlet, chunk.Dense))
	}

	e := newEnv(c)
	g, err := newGrid(e, s, t, nrows, ncols, opts...)
	if err != nil {
		logger.Fatalf("create grid: %s", err)
	}
	defer g.Close()
	if err = g.Write(); err != nil {
		logger.Fatalf("write grid: %s", err)
	}
	logger.Infof("Created %s grid %s (%s) of %dx%d", t, name, g.ID(), nrows, ncols)
	printJson(g.Descriptor())
	return nil
}
