package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/habitat-rural/ovreport/internal/query"
	"github.com/habitat-rural/ovreport/internal/specdef"
)

// QueriesOptions holds flags for the queries command.
type QueriesOptions struct {
	*RootOptions
	Report   string
	SpecsDir string
}

// queryInfo is the JSON payload of one catalog entry.
type queryInfo struct {
	Name         string   `json:"name"`
	Placeholders []string `json:"placeholders,omitempty"`
}

// NewQueriesCommand creates the queries command.
func NewQueriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "queries",
		Short:         "List a report's queries and their placeholders",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "", "report name (required)")
	cmd.Flags().StringVar(&opts.SpecsDir, "specs", "", "directory with additional CUE report definitions")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func runQueries(cmd *cobra.Command, opts *QueriesOptions) error {
	reg, err := specdef.BuildRegistry(opts.SpecsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build report registry", err)
	}
	spec, err := reg.Get(opts.Report)
	if err != nil {
		return WrapExitError(ExitCommandError, "unknown report", err)
	}

	catalog := query.NewCatalog(spec)
	var infos []queryInfo
	var text strings.Builder
	for _, name := range catalog.Names() {
		tmpl, err := catalog.Get(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read catalog", err)
		}
		placeholders := query.Placeholders(tmpl)
		infos = append(infos, queryInfo{Name: name, Placeholders: placeholders})
		if len(placeholders) > 0 {
			fmt.Fprintf(&text, "%-28s needs {%s}\n", name, strings.Join(placeholders, "} {"))
		} else {
			fmt.Fprintf(&text, "%s\n", name)
		}
	}

	return opts.formatter(cmd).Success(strings.TrimRight(text.String(), "\n"), infos)
}
