package colsense

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/dataset"
)

var (
	inspectColumns []string
	inspectSamples int
)

func init() {
	cmd := &cobra.Command{
		Use:   "inspect <file.csv|schema.json>",
		Short: "Show the column metadata that would be sent for classification",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringSliceVar(&inspectColumns, "columns", nil, "only include columns matching these glob patterns (repeatable)")
	cmd.Flags().IntVar(&inspectSamples, "samples", 0, "distinct sample values per column, at most 5 (default 5)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	gcfg, lcfg := loadConfigs()
	ds, err := dataset.LoadFile(args[0], extractOptions(inspectColumns, inspectSamples, gcfg, lcfg))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ds.Columns)
	}

	_, _ = fmt.Fprintf(out, "%s (%s): %d columns\n", ds.Filename, ds.Kind, len(ds.Columns))
	table := tablewriter.NewWriter(out)
	table.Header("Column", "Type", "Samples")
	for _, c := range ds.Columns {
		samples := make([]string, len(c.SampleValues))
		for i, v := range c.SampleValues {
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			samples[i] = string(b)
		}
		if err := table.Append([]string{c.Name, c.Type, strings.Join(samples, ", ")}); err != nil {
			return err
		}
	}
	return table.Render()
}
