package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sds/pkg/sds"
)

func printCmd() *cli.Command {
	var (
		path     string
		page     int64
		rowLimit int64
		asJSON   bool
	)

	return &cli.Command{
		Name:  "print",
		Usage: "Print the data stored in a dataset file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to dataset file",
				Destination: &path,
				Required:    true,
			},
			&cli.IntFlag{Name: "page", Usage: "print only this page (0 = all pages)", Destination: &page},
			&cli.IntFlag{Name: "rows", Usage: "limit rows printed per page (0 = no limit)", Destination: &rowLimit},
			&cli.BoolFlag{Name: "json", Usage: "emit each page as a JSON object", Destination: &asJSON},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_ = ctx

			cfg, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyPrintConfig(c, cfg, &rowLimit)

			ds := sds.New(sds.WithLogger(loggerFromConfig(cfg)))
			if err := ds.InitializeInput(path); err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer ds.Terminate()

			for {
				n, err := ds.ReadPage()
				if err != nil {
					return fmt.Errorf("read page: %w", err)
				}
				if n < 0 {
					break
				}
				if page > 0 && int64(n) != page {
					continue
				}
				if asJSON {
					if err := printPageJSON(ds, n, rowLimit); err != nil {
						return err
					}
				} else if err := printPage(ds, n, rowLimit); err != nil {
					return err
				}
				if page > 0 {
					break
				}
			}
			return nil
		},
	}
}

type arrayJSON struct {
	Dimensions []int32 `json:"dimensions"`
	Values     []any   `json:"values"`
}

type pageJSON struct {
	Page       int32                `json:"page"`
	Parameters map[string]any       `json:"parameters,omitempty"`
	Arrays     map[string]arrayJSON `json:"arrays,omitempty"`
	Columns    map[string][]any     `json:"columns,omitempty"`
}

func printPageJSON(ds *sds.Dataset, number int32, rowLimit int64) error {
	out := pageJSON{Page: number}

	for _, name := range ds.GetParameterNames() {
		v, err := ds.GetParameter(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		if out.Parameters == nil {
			out.Parameters = make(map[string]any)
		}
		out.Parameters[name] = v.Any()
	}

	for _, name := range ds.GetArrayNames() {
		values, dims, err := ds.GetArray(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("array %q: %w", name, err)
		}
		if out.Arrays == nil {
			out.Arrays = make(map[string]arrayJSON)
		}
		a := arrayJSON{Dimensions: dims, Values: make([]any, len(values))}
		for i, v := range values {
			a.Values[i] = v.Any()
		}
		out.Arrays[name] = a
	}

	for _, name := range ds.GetColumnNames() {
		col, err := ds.GetColumn(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		if rowLimit > 0 && int64(len(col)) > rowLimit {
			col = col[:rowLimit]
		}
		if out.Columns == nil {
			out.Columns = make(map[string][]any)
		}
		vals := make([]any, len(col))
		for i, v := range col {
			vals[i] = v.Any()
		}
		out.Columns[name] = vals
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printPage(ds *sds.Dataset, number int32, rowLimit int64) error {
	fmt.Printf("page %d:\n", number)

	for _, name := range ds.GetParameterNames() {
		v, err := ds.GetParameter(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		fmt.Printf("  %s = %s\n", name, v)
	}

	for _, name := range ds.GetArrayNames() {
		values, dims, err := ds.GetArray(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("array %q: %w", name, err)
		}
		fmt.Printf("  %s%v:", name, dims)
		for _, v := range values {
			fmt.Printf(" %s", v)
		}
		fmt.Println()
	}

	names := ds.GetColumnNames()
	if len(names) == 0 {
		return nil
	}
	rows := ds.RowCount()
	fmt.Printf("  rows: %d\n", rows)
	cols := make([][]sds.Value, len(names))
	for i, name := range names {
		col, err := ds.GetColumn(sds.ByName(name))
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		cols[i] = col
	}
	fmt.Print("  ")
	for _, name := range names {
		fmt.Printf("%-20s", name)
	}
	fmt.Println()
	for r := int64(0); r < rows; r++ {
		if rowLimit > 0 && r >= rowLimit {
			fmt.Printf("  ... %d more rows\n", rows-r)
			break
		}
		fmt.Print("  ")
		for i := range names {
			fmt.Printf("%-20s", cols[i][r])
		}
		fmt.Println()
	}
	return nil
}
