// cmd/info.go

package main

import (
	"time"

	"AveGrid/pkg/meta"
	"AveGrid/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the descriptor and statistics of grids",
		ArgsUsage: "STORE GRID ...",
		Action:    info,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "store recomputed statistics in the descriptor",
			},
		},
	}
}

type gridInfo struct {
	Descriptor meta.Descriptor
	Mean       *float64 `json:",omitempty"`
	Resident   string
	Elapsed    string
	CPU        string
}

func info(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	needArgs(ctx, 2, "STORE and GRID")
	s := openStore(ctx.Args().Get(0))
	e := newEnv(ctx)
	for i := 1; i < ctx.Args().Len(); i++ {
		id := ctx.Args().Get(i)
		g, err := openGrid(e, s, id)
		if err != nil {
			logger.Errorf("open grid %s: %s", id, err)
			continue
		}
		start, ru := time.Now(), utils.GetRusage()
		st, err := g.Stats()
		if err != nil {
			g.Close()
			logger.Fatalf("statistics of %s: %s", id, err)
		}
		if ctx.Bool("save") {
			if err = g.Write(); err != nil {
				logger.Errorf("save %s: %s", id, err)
			}
		}
		var mean *float64
		if st.Count > 0 {
			m := st.Mean()
			mean = &m
		}
		printJson(&gridInfo{
			Descriptor: g.Descriptor(),
			Mean:       mean,
			Resident:   humanize.IBytes(uint64(g.ResidentBytes())),
			Elapsed:    time.Since(start).String(),
			CPU:        utils.GetRusage().CPUSince(ru).String(),
		})
		g.Close()
	}
	return nil
}
