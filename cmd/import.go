// cmd/import.go

package main

import (
	"os"
	"path/filepath"
	"strings"

	"AveGrid/pkg/ascii"
	"AveGrid/pkg/utils"

	"github.com/urfave/cli/v2"
)

func importFlags() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "import an ESRI ASCII grid as a double grid",
		ArgsUsage: "STORE FILE.asc",
		Action:    importGrid,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "name of the grid (default the file name without extension)",
			},
			recoverFlag(),
		}, chunkSizeFlags()...),
	}
}

func importGrid(c *cli.Context) error {
	setLoggerLevel(c)
	needArgs(c, 2, "STORE and FILE")
	s := openStore(c.Args().Get(0))
	path := c.Args().Get(1)
	name := c.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Fatalf("open %s: %s", path, err)
	}
	defer f.Close()

	e := newEnv(c)
	retry := e.Config().Recover
	if c.IsSet("recover") {
		retry = c.Bool("recover")
	}
	rows, cols := s.chunkSize(c)
	progress, bar := utils.NewDynProgressBar("importing rows: ", c.Bool("quiet"))
	g, err := ascii.Read(f, e, s.chunks, ascii.Options{
		Name:      name,
		ChunkRows: rows,
		ChunkCols: cols,
		Meta:      s.meta,
		Retry:     retry,
		Bar:       bar,
	})
	if err != nil {
		bar.Abort(true)
		progress.Wait()
		logger.Fatalf("import %s: %s", path, err)
	}
	defer g.Close()
	bar.SetTotal(-1, true)
	progress.Wait()
	if err = g.Write(); err != nil {
		logger.Fatalf("write grid: %s", err)
	}
	logger.Infof("Imported %s as grid %s (%s) of %dx%d", path, name, g.ID(), g.NRows(), g.NCols())
	return nil
}
