package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	cfgpkg "github.com/KaramelBytes/metricdeck-cli/internal/config"
	"github.com/KaramelBytes/metricdeck-cli/internal/dataset"
	"github.com/KaramelBytes/metricdeck-cli/internal/export"
	"github.com/KaramelBytes/metricdeck-cli/internal/filter"
	"github.com/KaramelBytes/metricdeck-cli/internal/registry"
	"github.com/KaramelBytes/metricdeck-cli/internal/taxonomy"
	"github.com/spf13/cobra"
)

var (
	metArea  string
	metQuery string

	runData            string
	runSheetName       string
	runSheetIndex      int
	runFrom            string
	runTo              string
	runChannels        []string
	runSellers         []string
	runCategories      []string
	runTopN            int
	runIncludeCanceled bool
	runWhere           string
	runOutput          string
	runFormat          string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List and run metrics",
}

var metricsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := registry.Default().List(metArea, metQuery)
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No metrics match")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tAREA\tNAME")
		for _, d := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Area, d.Name)
		}
		return tw.Flush()
	},
}

var metricsRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Run one metric against the dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := registry.Default().Lookup(args[0])
		if !ok {
			return fmt.Errorf("%w: %s (see 'metricdeck metrics list')", registry.ErrUnknownMetric, args[0])
		}
		format := strings.ToLower(runFormat)
		switch format {
		case "table", "csv", "md":
		default:
			return fmt.Errorf("unsupported --format: %s (use table|csv|md)", runFormat)
		}
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		src := newSource(c, runData)
		if cmd.Flags().Changed("sheet-name") {
			src.Ingest.Sheet = runSheetName
		}
		if cmd.Flags().Changed("sheet-index") {
			src.Ingest.SheetIndex = runSheetIndex
		}
		t, err := src.Load(context.Background())
		if err != nil {
			return err
		}
		p, err := runParams(cmd, c)
		if err != nil {
			return err
		}
		if p.Expr != "" {
			if err := filter.ValidateExpr(t, p.Expr); err != nil {
				return fmt.Errorf("invalid --where: %w", err)
			}
		}
		out := d.Func(t, p)

		var buf bytes.Buffer
		switch format {
		case "csv":
			err = export.WriteCSV(&buf, out)
		case "md":
			buf.WriteString(export.Markdown(out, d.ID+" "+d.Name))
		default:
			err = export.WriteText(&buf, out)
		}
		if err != nil {
			return err
		}
		if runOutput != "" {
			if format == "csv" {
				if err := export.WriteCSVFile(runOutput, out); err != nil {
					return err
				}
			} else if err := os.WriteFile(runOutput, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows) to %s\n", d.ID, out.Len(), runOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	},
}

// newSource builds the dataset source from config; path overrides dataset_path.
func newSource(c *cfgpkg.Global, path string) dataset.Source {
	if path == "" {
		path = c.DatasetPath
	}
	src := dataset.Source{
		Path:    path,
		Ingest:  c.IngestOptions(),
		Prepare: c.PrepareOptions(),
	}
	if c.TaxonomyPath != "" {
		src.Taxonomy = taxonomy.NewLoader(c.TaxonomyPath)
	}
	return src
}

// runParams overlays changed flags on the configured defaults.
func runParams(cmd *cobra.Command, c *cfgpkg.Global) (filter.Params, error) {
	p, err := c.Params()
	if err != nil {
		return p, err
	}
	f := cmd.Flags()
	if f.Changed("from") {
		if p.DateFrom, err = filter.ParseDay(runFrom, false); err != nil {
			return p, fmt.Errorf("--from: %w", err)
		}
	}
	if f.Changed("to") {
		if p.DateTo, err = filter.ParseDay(runTo, true); err != nil {
			return p, fmt.Errorf("--to: %w", err)
		}
	}
	if f.Changed("channel") {
		p.Channels = runChannels
	}
	if f.Changed("seller") {
		p.Sellers = runSellers
	}
	if f.Changed("category") {
		p.Categories = runCategories
	}
	if f.Changed("top-n") {
		if runTopN < 0 {
			return p, fmt.Errorf("--top-n must be >= 0")
		}
		p.TopN = runTopN
	}
	if f.Changed("include-canceled") {
		p.IncludeCanceled = runIncludeCanceled
	}
	if f.Changed("where") {
		p.Expr = filter.JoinExpr("and", p.Expr, runWhere)
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.AddCommand(metricsListCmd)
	metricsCmd.AddCommand(metricsRunCmd)

	metricsListCmd.Flags().StringVarP(&metArea, "area", "a", "", "only list one area: channel|product|customer|seller|category|trend")
	metricsListCmd.Flags().StringVarP(&metQuery, "query", "q", "", "case-insensitive match on id or name")

	f := metricsRunCmd.Flags()
	f.StringVarP(&runData, "data", "d", "", "dataset file (overrides dataset_path)")
	f.StringVar(&runSheetName, "sheet-name", "", "XLSX: sheet name to read")
	f.IntVar(&runSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	f.StringVar(&runFrom, "from", "", "first order date, YYYY-MM-DD")
	f.StringVar(&runTo, "to", "", "last order date (inclusive), YYYY-MM-DD")
	f.StringSliceVar(&runChannels, "channel", nil, "only these channels (repeatable)")
	f.StringSliceVar(&runSellers, "seller", nil, "only these sellers (repeatable)")
	f.StringSliceVar(&runCategories, "category", nil, "only these category codes (repeatable)")
	f.IntVar(&runTopN, "top-n", 0, "limit ranked output (0 = metric default)")
	f.BoolVar(&runIncludeCanceled, "include-canceled", false, "keep canceled order lines")
	f.StringVar(&runWhere, "where", "", "extra row condition, e.g. 'line_amount > 10000 && channel == \"A\"'")
	f.StringVarP(&runOutput, "output", "o", "", "write the result to a file")
	f.StringVar(&runFormat, "format", "table", "output format: table|csv|md")
}
