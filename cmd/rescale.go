// cmd/rescale.go

package main

import (
	"AveGrid/pkg/algo"
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"

	"github.com/urfave/cli/v2"
)

func rescaleFlags() *cli.Command {
	return &cli.Command{
		Name:      "rescale",
		Usage:     "map the values of a grid linearly onto a range, into a new double grid",
		ArgsUsage: "STORE GRID",
		Action:    rescale,
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "min",
				Value: 0,
				Usage: "lower end of the range",
			},
			&cli.Float64Flag{
				Name:  "max",
				Value: 255,
				Usage: "upper end of the range",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "name of the new grid (default GRID-rescaled)",
			},
			recoverFlag(),
		},
	}
}

func rescaleGrid(e *env.Environment, g anyGrid, name string, lo, hi float64, retry bool) (*grid.Grid[float64], error) {
	switch g := g.(type) {
	case *grid.Grid[bool]:
		return algo.Rescale(e, g, name, lo, hi, retry)
	case *grid.Grid[chunk.Tristate]:
		return algo.Rescale(e, g, name, lo, hi, retry)
	case *grid.Grid[int32]:
		return algo.Rescale(e, g, name, lo, hi, retry)
	case *grid.Grid[float64]:
		return algo.Rescale(e, g, name, lo, hi, retry)
	}
	panic("unreachable")
}

func rescale(c *cli.Context) error {
	setLoggerLevel(c)
	needArgs(c, 2, "STORE and GRID")
	s := openStore(c.Args().Get(0))
	e := newEnv(c)
	g := mustOpenGrid(e, s, c.Args().Get(1))
	defer g.Close()

	name := c.String("name")
	if name == "" {
		name = g.Name() + "-rescaled"
	}
	retry := e.Config().Recover
	if c.IsSet("recover") {
		retry = c.Bool("recover")
	}
	lo, hi := c.Float64("min"), c.Float64("max")
	out, err := rescaleGrid(e, g, name, lo, hi, retry)
	if err != nil {
		logger.Fatalf("rescale %s: %s", g.Name(), err)
	}
	defer out.Close()
	if err = out.Write(); err != nil {
		logger.Fatalf("write grid: %s", err)
	}
	logger.Infof("Rescaled %s onto [%g, %g] as grid %s (%s)", g.Name(), lo, hi, name, out.ID())
	return nil
}
