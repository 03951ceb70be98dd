// cmd/mask.go

package main

import (
	"AveGrid/pkg/algo"
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"

	"github.com/urfave/cli/v2"
)

func maskFlags() *cli.Command {
	return &cli.Command{
		Name:      "mask",
		Usage:     "set cells of a grid to no-data where a mask grid is no-data",
		ArgsUsage: "STORE GRID MASK",
		Action:    mask,
		Flags: []cli.Flag{
			recoverFlag(),
		},
	}
}

func maskWith[T comparable](e *env.Environment, g *grid.Grid[T], m anyGrid, retry bool) error {
	switch m := m.(type) {
	case *grid.Grid[bool]:
		return algo.Mask(e, g, m, retry)
	case *grid.Grid[chunk.Tristate]:
		return algo.Mask(e, g, m, retry)
	case *grid.Grid[int32]:
		return algo.Mask(e, g, m, retry)
	case *grid.Grid[float64]:
		return algo.Mask(e, g, m, retry)
	}
	panic("unreachable")
}

func maskGrid(e *env.Environment, g, m anyGrid, retry bool) error {
	switch g := g.(type) {
	case *grid.Grid[bool]:
		return maskWith(e, g, m, retry)
	case *grid.Grid[chunk.Tristate]:
		return maskWith(e, g, m, retry)
	case *grid.Grid[int32]:
		return maskWith(e, g, m, retry)
	case *grid.Grid[float64]:
		return maskWith(e, g, m, retry)
	}
	panic("unreachable")
}

func mask(c *cli.Context) error {
	setLoggerLevel(c)
	needArgs(c, 3, "STORE, GRID and MASK")
	s := openStore(c.Args().Get(0))
	e := newEnv(c)
	g := mustOpenGrid(e, s, c.Args().Get(1))
	defer g.Close()
	m := mustOpenGrid(e, s, c.Args().Get(2))
	defer m.Close()

	retry := e.Config().Recover
	if c.IsSet("recover") {
		retry = c.Bool("recover")
	}
	if err := maskGrid(e, g, m, retry); err != nil {
		logger.Fatalf("mask %s with %s: %s", g.Name(), m.Name(), err)
	}
	if err := g.Write(); err != nil {
		logger.Fatalf("write grid: %s", err)
	}
	logger.Infof("Masked %s with %s", g.Name(), m.Name())
	return nil
}
