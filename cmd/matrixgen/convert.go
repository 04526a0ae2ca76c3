package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deped/expenditure-matrix/internal/config"
	"github.com/deped/expenditure-matrix/internal/container"
	"github.com/deped/expenditure-matrix/internal/schema"
	"github.com/deped/expenditure-matrix/internal/service"
	"github.com/deped/expenditure-matrix/pkg/utils"
)

type convertOptions struct {
	template string
	output   string
	policy   string
}

func newConvertCmd(g *globalFlags) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [flags] FILE...",
		Short: "Convert Budget Estimate workbooks into one Expenditure Matrix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), cmd, g, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "templates/expenditure_matrix.xlsx", "Expenditure Matrix template workbook")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default Expenditure-Matrix-<id>.xlsx in the current directory)")
	cmd.Flags().StringVar(&opts.policy, "on-error", config.FailurePolicyAbort, "what to do with unreadable sources: abort or skip")
	return cmd
}

func runConvert(ctx context.Context, cmd *cobra.Command, g *globalFlags, opts *convertOptions, files []string) error {
	if opts.policy != config.FailurePolicyAbort && opts.policy != config.FailurePolicySkip {
		return fmt.Errorf("--on-error must be %q or %q", config.FailurePolicyAbort, config.FailurePolicySkip)
	}

	logger, err := g.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sch := schema.Default()
	template, err := container.ProvideTemplate(opts.template, sch.Target)
	if err != nil {
		return err
	}

	sources := make([]service.Source, 0, len(files))
	for _, path := range files {
		if err := utils.ValidateWorkbookName(path); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, service.Source{Name: filepath.Base(path), Data: data})
	}

	converter := service.NewConverter(service.ConverterConfig{
		Template:      template,
		FailurePolicy: opts.policy,
		Schema:        sch,
	}, nil, nil, logger)

	result, err := converter.Convert(ctx, sources)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = result.FileName
	}
	if err := os.WriteFile(out, result.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	for _, s := range result.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.File, s.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d activities, %d items, grand total row %d)\n",
		out, result.Stats.Activities, result.Stats.Items, result.Stats.GrandTotalRow)
	return nil
}
