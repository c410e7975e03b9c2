package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/habitat-rural/ovreport/internal/pipeline"
	"github.com/habitat-rural/ovreport/internal/report"
	"github.com/habitat-rural/ovreport/internal/specdef"
	"github.com/habitat-rural/ovreport/internal/validate"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Report   string
	Output   string
	Params   string
	SpecsDir string
	Queries  []string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <files...>",
		Short: "Generate one report workbook from ledger exports",
		Long: `Validate the given ledger exports against a report's required-file
patterns, load the matched files into the analytic store, run the report's
queries and write each result as a worksheet of the output workbook.

Example:
  ovreport generate --report suivi_paiements --out suivi_03_2024.xlsx \
      --params mars.yaml Journal_paiements__*.xlsx Journal_decisions__*.xlsx`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "report name (required)")
	cmd.Flags().StringVar(&opts.Output, "out", "", "output workbook path (required)")
	cmd.Flags().StringVar(&opts.Params, "params", "", "YAML file with template substitution values")
	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory with additional CUE report definitions")
	cmd.Flags().StringSliceVar(&opts.Queries, "queries", nil, "subset of the report's queries to run")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions, files []string) error {
	reg, err := specdef.BuildRegistry(opts.SpecsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build report registry", err)
	}

	params, err := loadParams(opts.Params)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load params", err)
	}

	summary, err := pipeline.Run(cmd.Context(), pipeline.Options{
		Registry:   reg,
		Report:     opts.Report,
		Files:      files,
		OutputPath: opts.Output,
		QueryNames: opts.Queries,
		Params:     params,
	})
	if err != nil {
		return wrapPipelineError(err)
	}

	return opts.formatter(cmd).Success(pipeline.DescribeRun(summary), summary)
}

// wrapPipelineError maps pipeline failures onto exit codes: unknown names
// and missing inputs are command errors, everything else a report failure.
func wrapPipelineError(err error) error {
	var mi *validate.MissingInputError
	switch {
	case report.IsNotFound(err), errors.As(err, &mi):
		return WrapExitError(ExitCommandError, "report generation failed", err)
	default:
		return WrapExitError(ExitFailure, "report generation failed", err)
	}
}
