package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/habitat-rural/ovreport/internal/specdef"
)

// ReportsOptions holds flags for the reports command.
type ReportsOptions struct {
	*RootOptions
	SpecsDir string
}

// reportInfo is the JSON payload of one registry entry.
type reportInfo struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Category      string `json:"category"`
	RequiredFiles int    `json:"required_files"`
	Queries       int    `json:"queries"`
}

// NewReportsCommand creates the reports command.
func NewReportsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "reports",
		Short:         "List the registered report specifications",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory with additional CUE report definitions")

	return cmd
}

func runReports(cmd *cobra.Command, opts *ReportsOptions) error {
	reg, err := specdef.BuildRegistry(opts.SpecsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build report registry", err)
	}

	var infos []reportInfo
	var text strings.Builder
	for _, name := range reg.Names() {
		spec, err := reg.Get(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read registry", err)
		}
		infos = append(infos, reportInfo{
			Name:          spec.Name,
			DisplayName:   spec.DisplayName,
			Category:      spec.Category,
			RequiredFiles: len(spec.RequiredFiles),
			Queries:       len(spec.QueryNames()),
		})
		fmt.Fprintf(&text, "%-24s %-12s %s (%d files, %d queries)\n",
			spec.Name, spec.Category, spec.DisplayName,
			len(spec.RequiredFiles), len(spec.QueryNames()))
	}

	return opts.formatter(cmd).Success(strings.TrimRight(text.String(), "\n"), infos)
}
