package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/metricdeck-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	insOutputPath string
	insSampleRows int
	insSheetName  string
	insSheetIndex int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Profile a dataset after column mapping and type coercion",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		src := newSource(c, path)
		if cmd.Flags().Changed("sheet-name") {
			src.Ingest.Sheet = insSheetName
		}
		if cmd.Flags().Changed("sheet-index") {
			src.Ingest.SheetIndex = insSheetIndex
		}
		t, err := src.Load(context.Background())
		if err != nil {
			return err
		}
		md := analysis.Profile(t, filepath.Base(src.Path), insSampleRows).Markdown()
		if insOutputPath != "" {
			if err := os.WriteFile(insOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", insOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().StringVar(&insSheetName, "sheet-name", "", "XLSX: sheet name to read")
	inspectCmd.Flags().IntVar(&insSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
