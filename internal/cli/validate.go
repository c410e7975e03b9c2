package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/habitat-rural/ovreport/internal/specdef"
	"github.com/habitat-rural/ovreport/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Report   string
	SpecsDir string
}

// matchReport is the JSON payload of a successful validation.
type matchReport struct {
	Report    string            `json:"report"`
	Matched   map[string]string `json:"matched"`
	Unmatched []string          `json:"unmatched,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <files...>",
		Short: "Check ledger exports against a report's requirements",
		Long: `Match the given files against the report's required-file patterns
without loading anything. Prints which file satisfies which table and which
files were ignored.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "report name (required)")
	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory with additional CUE report definitions")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, files []string) error {
	reg, err := specdef.BuildRegistry(opts.SpecsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build report registry", err)
	}

	result, err := validate.Validate(reg, opts.Report, files)
	if err != nil {
		if validate.IsUnsatisfied(err) {
			return WrapExitError(ExitFailure, "validation failed", err)
		}
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	spec, err := reg.Get(opts.Report)
	if err != nil {
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "report %s: all %d required files matched\n", spec.Name, len(result.Matched))
	for _, rf := range spec.RequiredFiles {
		fmt.Fprintf(&text, "  %-16s %s\n", rf.TableName, result.Matched[rf.TableName])
	}
	for _, extra := range result.Unmatched {
		fmt.Fprintf(&text, "  ignored          %s\n", extra)
	}

	return opts.formatter(cmd).Success(strings.TrimRight(text.String(), "\n"), matchReport{
		Report:    spec.Name,
		Matched:   result.Matched,
		Unmatched: result.Unmatched,
	})
}
