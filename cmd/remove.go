// cmd/remove.go

package main

import (
	"github.com/urfave/cli/v2"
)

func removeFlags() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "remove grids with all their chunks",
		ArgsUsage: "STORE GRID ...",
		Action:    remove,
	}
}

func remove(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 2 {
		logger.Infof("STORE and GRID are needed")
		return nil
	}
	s := openStore(ctx.Args().Get(0))
	for i := 1; i < ctx.Args().Len(); i++ {
		id := ctx.Args().Get(i)
		d, err := s.meta.LoadGrid(id)
		if err != nil {
			logger.Errorf("lookup grid %s: %s", id, err)
			continue
		}
		n, err := s.meta.DeleteGrid(d.ID)
		if err != nil {
			logger.Fatalf("remove %s: %s", id, err)
		}
		logger.Infof("Removed grid %s (%s) and %d chunks", d.Name, d.ID, n)
	}
	return nil
}
