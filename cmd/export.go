package main

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mnp-lab/mnp-cli/internal/export"
	"github.com/mnp-lab/mnp-cli/internal/risk"
)

var (
	exportFormat   string
	exportOut      string
	exportArchived bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export contract lines with risk columns",
	Long: `Exports stored contract lines joined with their current risk
assessment as CSV, TSV, or XLSX.

Examples:
  mnp-cli export --format tsv
  mnp-cli export --format xlsx --out lines.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		lines, err := st.ListLines(ctx, exportArchived)
		if err != nil {
			return err
		}

		asOf := time.Now().UTC()
		rows := make([]export.LineRow, 0, len(lines))
		for _, line := range lines {
			a, err := risk.AssessLine(reg, line, asOf)
			if err != nil {
				return err
			}
			rows = append(rows, export.LineRow{Line: line, Risk: a})
		}

		format := strings.ToLower(exportFormat)
		switch format {
		case "csv", "tsv":
			delim := ','
			if format == "tsv" {
				delim = '\t'
			}
			w := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return eris.Wrapf(err, "export: create %s", exportOut)
				}
				defer f.Close()
				w = f
			}
			return export.WriteLinesCSV(w, rows, delim)

		case "xlsx":
			if exportOut == "" {
				return eris.New("--out is required for xlsx export")
			}
			return export.WriteLinesXLSX(exportOut, rows)

		default:
			return eris.Errorf("unknown export format %q", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv/tsv/xlsx)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout for csv/tsv)")
	exportCmd.Flags().BoolVar(&exportArchived, "archived", false, "include archived lines")
	rootCmd.AddCommand(exportCmd)
}
