package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deped/expenditure-matrix/pkg/utils"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "1.0.0"

type globalFlags struct {
	verbose bool
}

func (g *globalFlags) logger() (*zap.Logger, error) {
	return utils.NewCLILogger(g.verbose)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "matrixgen",
		Short: "Build an Expenditure Matrix from Budget Estimate workbooks",
		Long: `matrixgen reads one or more Budget Estimate workbooks, merges their
activities, and writes a single Expenditure Matrix workbook with cloned
template rows, per-activity SUM formulas and a grand total row.

Example Usage:
  matrixgen convert -t template.xlsx -o matrix.xlsx BE-*.xlsx
  matrixgen schema
  matrixgen serve --config configs/config.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(
		newConvertCmd(g),
		newSchemaCmd(),
		newServeCmd(g),
	)
	return root
}
