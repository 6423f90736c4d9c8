package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sds/pkg/sds"
)

func checkCmd() *cli.Command {
	var (
		path    string
		verbose bool
	)

	return &cli.Command{
		Name:  "check",
		Usage: "Read every page of a dataset file and verify its consistency",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to dataset file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print per-page row counts", Destination: &verbose},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ds := sds.New(sds.WithLogger(loggerFromConfig(cfg)))
			if err := ds.InitializeInput(path); err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer ds.Terminate()

			pages := 0
			rows := int64(0)
			for {
				n, err := ds.ReadPage()
				if err != nil {
					return fmt.Errorf("%s: page %d: %w", path, pages+1, err)
				}
				if n < 0 {
					break
				}
				if err := ds.CheckDataset("check"); err != nil {
					return fmt.Errorf("%s: page %d: %w", path, n, err)
				}
				pages++
				count := ds.RowCount()
				if count > 0 {
					rows += count
				}
				if verbose {
					fmt.Printf("page %d: %d rows\n", n, count)
				}
			}

			fmt.Printf("%s: ok (%d page(s), %d row(s))\n", path, pages, rows)
			return nil
		},
	}
}
