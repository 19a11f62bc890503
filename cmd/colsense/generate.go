package colsense

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/dataset"
)

var (
	genRows int
	genSeed uint64
	genOut  string
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic customer CSV for trying out classification",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().IntVar(&genRows, "rows", 100, "number of rows")
	cmd.Flags().Uint64Var(&genSeed, "seed", 0, "random seed for reproducible output (0 = random)")
	cmd.Flags().StringVar(&genOut, "out", "fake_customer_data.csv", "output file ('-' for stdout)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ds, err := dataset.Generate(dataset.GenerateOptions{Rows: genRows, Seed: genSeed}, dataset.Options{})
	if err != nil {
		return err
	}
	if genOut == "-" {
		return ds.Table.WriteCSV(cmd.OutOrStdout())
	}
	f, err := os.Create(genOut)
	if err != nil {
		return err
	}
	if err := ds.Table.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows x %d columns to %s\n", len(ds.Table.Rows), len(ds.Table.Header), genOut)
	return nil
}
