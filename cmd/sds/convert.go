package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sds/pkg/sds"
)

func convertCmd() *cli.Command {
	var (
		inPath  string
		outPath string
		mode    string
	)

	return &cli.Command{
		Name:  "convert",
		Usage: "Rewrite a dataset file, optionally changing encoding or compression",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "source dataset file",
				Destination: &inPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "destination file (compression chosen by extension: .gz, .lz4, .sz)",
				Destination: &outPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "output encoding: ascii or binary (default: keep source encoding)",
				Destination: &mode,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyConvertConfig(c, cfg, &mode)
			log := loggerFromConfig(cfg)

			src := sds.New(sds.WithLogger(log))
			if err := src.InitializeInput(inPath); err != nil {
				return fmt.Errorf("open %s: %w", inPath, err)
			}
			defer src.Terminate()

			dst := sds.New(sds.WithLogger(log))
			if err := dst.InitializeCopy(src, outPath, sds.CopyModeWrite); err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer dst.Terminate()

			switch mode {
			case "":
			case "ascii", "text":
				if err := dst.SetDataMode(sds.EncodingText); err != nil {
					return err
				}
			case "binary":
				if err := dst.SetDataMode(sds.EncodingBinary); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown mode %q (want ascii or binary)", mode)
			}

			pages := 0
			for {
				n, err := src.ReadPage()
				if err != nil {
					return fmt.Errorf("read page: %w", err)
				}
				if n < 0 {
					break
				}
				if err := dst.CopyPage(src); err != nil {
					return fmt.Errorf("copy page %d: %w", n, err)
				}
				if err := dst.WritePage(); err != nil {
					return fmt.Errorf("write page %d: %w", n, err)
				}
				pages++
			}

			fmt.Printf("wrote %d page(s) to %s\n", pages, outPath)
			return nil
		},
	}
}
