// cmd/export.go

package main

import (
	"io"
	"os"

	"AveGrid/pkg/ascii"
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/utils"

	"github.com/urfave/cli/v2"
)

func exportFlags() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "export a grid as ESRI ASCII",
		ArgsUsage: "STORE GRID FILE.asc",
		Action:    export,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "places",
				Value: -1,
				Usage: "decimal places of double cells, rounded half to even (-1 keeps every digit)",
			},
			recoverFlag(),
		},
	}
}

func writeAscii(w io.Writer, e *env.Environment, g anyGrid, opt ascii.Options) error {
	switch g := g.(type) {
	case *grid.Grid[bool]:
		return ascii.Write(w, e, g, opt)
	case *grid.Grid[chunk.Tristate]:
		return ascii.Write(w, e, g, opt)
	case *grid.Grid[int32]:
		return ascii.Write(w, e, g, opt)
	case *grid.Grid[float64]:
		return ascii.Write(w, e, g, opt)
	}
	panic("unreachable")
}

func export(c *cli.Context) error {
	setLoggerLevel(c)
	needArgs(c, 3, "STORE, GRID and FILE")
	s := openStore(c.Args().Get(0))
	e := newEnv(c)
	g := mustOpenGrid(e, s, c.Args().Get(1))
	defer g.Close()

	path := c.Args().Get(2)
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			logger.Fatalf("create %s: %s", path, err)
		}
		defer f.Close()
		w = f
	}
	retry := e.Config().Recover
	if c.IsSet("recover") {
		retry = c.Bool("recover")
	}
	progress, bar := utils.NewDynProgressBar("exporting rows: ", c.Bool("quiet") || path == "-")
	err := writeAscii(w, e, g, ascii.Options{Retry: retry, Places: int32(c.Int("places")), Bar: bar})
	if err != nil {
		bar.Abort(true)
		progress.Wait()
		logger.Fatalf("export %s: %s", g.Name(), err)
	}
	bar.SetTotal(-1, true)
	progress.Wait()
	logger.Infof("Exported grid %s to %s", g.Name(), path)
	return nil
}
