package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sds/pkg/sds"
)

type definitionJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Units       string `json:"units,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format_string,omitempty"`
	FixedValue  string `json:"fixed_value,omitempty"`
	FieldLength int32  `json:"field_length,omitempty"`
	Dimensions  int32  `json:"dimensions,omitempty"`
	Group       string `json:"group_name,omitempty"`
}

type layoutJSON struct {
	Description string           `json:"description,omitempty"`
	Contents    string           `json:"contents,omitempty"`
	Mode        string           `json:"mode"`
	ColumnMajor bool             `json:"column_major,omitempty"`
	Pages       int32            `json:"pages,omitempty"`
	Parameters  []definitionJSON `json:"parameters"`
	Arrays      []definitionJSON `json:"arrays"`
	Columns     []definitionJSON `json:"columns"`
}

func inspectCmd() *cli.Command {
	var (
		path       string
		asJSON     bool
		countPages bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the layout of a dataset file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to dataset file",
				Destination: &path,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "emit the layout as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "pages", Usage: "read through the file and count pages", Destination: &countPages},
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

			var pages int32
			if countPages {
				for {
					n, err := ds.ReadPage()
					if err != nil {
						return fmt.Errorf("read page: %w", err)
					}
					if n < 0 {
						break
					}
					pages = n
				}
			}

			layout := ds.Layout()
			if asJSON {
				out := layoutJSON{
					Description: layout.Description,
					Contents:    layout.Contents,
					Mode:        layout.Mode.Encoding.String(),
					ColumnMajor: layout.Mode.ColumnMajor,
					Pages:       pages,
					Parameters:  defsToJSON(layout.Parameters),
					Arrays:      defsToJSON(layout.Arrays),
					Columns:     defsToJSON(layout.Columns),
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("file:        %s\n", path)
			if layout.Description != "" {
				fmt.Printf("description: %s\n", layout.Description)
			}
			if layout.Contents != "" {
				fmt.Printf("contents:    %s\n", layout.Contents)
			}
			fmt.Printf("mode:        %s\n", layout.Mode.Encoding)
			if layout.Mode.ColumnMajor {
				fmt.Println("order:       column-major")
			}
			if countPages {
				fmt.Printf("pages:       %d\n", pages)
			}
			printDefs("parameters", layout.Parameters)
			printDefs("arrays", layout.Arrays)
			printDefs("columns", layout.Columns)
			return nil
		},
	}
}

func defsToJSON(defs []sds.Definition) []definitionJSON {
	out := make([]definitionJSON, len(defs))
	for i, def := range defs {
		out[i] = definitionJSON{
			Name:        def.Name,
			Type:        def.Type.String(),
			Units:       def.Units,
			Symbol:      def.Symbol,
			Description: def.Description,
			Format:      def.FormatString,
			FixedValue:  def.FixedValue,
			FieldLength: def.FieldLength,
			Dimensions:  def.Dimensions,
			Group:       def.GroupName,
		}
	}
	return out
}

func printDefs(label string, defs []sds.Definition) {
	if len(defs) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", label, len(defs))
	for _, def := range defs {
		line := fmt.Sprintf("  %-24s %s", def.Name, def.Type)
		if def.Units != "" {
			line += " [" + def.Units + "]"
		}
		if def.Dimensions > 0 {
			line += fmt.Sprintf(" dims=%d", def.Dimensions)
		}
		if def.FixedValue != "" {
			line += " fixed=" + def.FixedValue
		}
		fmt.Println(line)
	}
}
