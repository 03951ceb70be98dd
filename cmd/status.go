// cmd/status.go

package main

import (
	"encoding/json"
	"fmt"

	"AveGrid/pkg/meta"

	"github.com/urfave/cli/v2"
)

type sections struct {
	Setting *meta.Format
	Grids   []*meta.Descriptor
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func status(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 1 {
		return fmt.Errorf("STORE is needed")
	}
	s := openStore(ctx.Args().Get(0))

	if id := ctx.String("grid"); id != "" {
		d, err := s.meta.LoadGrid(id)
		if err != nil {
			logger.Fatalf("load grid: %s", err)
		}
		printJson(d)
		return nil
	}

	grids, err := s.meta.ListGrids()
	if err != nil {
		logger.Fatalf("list grids: %s", err)
	}
	s.format.RemoveSecret()
	printJson(&sections{s.format, grids})
	return nil
}

func statusFlags() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "show the setting and the grids of a store",
		ArgsUsage: "STORE",
		Action:    status,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "grid",
				Aliases: []string{"g"},
				Usage:   "show only the descriptor of the grid with this id or name",
			},
		},
	}
}
