package colsense

import (
	"encoding/json"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/config"
	"github.com/colsense/colsense/internal/report"
	"github.com/colsense/colsense/internal/taxonomy"
	"github.com/colsense/colsense/internal/types"
)

type levelJSON struct {
	Level       types.SensitivityLevel `json:"level"`
	Description string                 `json:"description"`
	Examples    []string               `json:"examples"`
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "levels",
		Short: "Print the sensitivity levels and the guidance shown to the model",
		Args:  cobra.NoArgs,
		RunE:  runLevels,
	})
}

func runLevels(cmd *cobra.Command, _ []string) error {
	gcfg, lcfg := loadConfigs()
	g, err := taxonomy.Default().Merge(config.Merge(gcfg, lcfg).Taxonomy)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		var ls []levelJSON
		for _, l := range taxonomy.Levels() {
			ls = append(ls, levelJSON{Level: l, Description: g[l].Description, Examples: g[l].Examples})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ls)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Level", "Description", "Examples")
	for _, l := range taxonomy.Levels() {
		name := string(l)
		if !flagNoColor {
			name = report.Colorize(l, name)
		}
		if err := table.Append([]string{name, g[l].Description, strings.Join(g[l].Examples, ", ")}); err != nil {
			return err
		}
	}
	return table.Render()
}
