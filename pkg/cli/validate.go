package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/getmockd/mockstore/pkg/cli/internal/output"
	"github.com/getmockd/mockstore/pkg/logging"
	"github.com/getmockd/mockstore/pkg/server"
	"github.com/spf13/cobra"
)

// ValidateOutput is the JSON result of "mockstore validate".
type ValidateOutput struct {
	Valid     bool     `json:"valid"`
	Config    string   `json:"config"`
	Error     string   `json:"error,omitempty"`
	Types     []string `json:"types,omitempty"`
	Queries   []string `json:"queries,omitempty"`
	Mutations []string `json:"mutations,omitempty"`
	Resolvers []string `json:"resolvers,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file without serving it.

This command checks:
  - YAML or JSON syntax
  - The configuration JSON Schema
  - Version, schema source and resolver field paths
  - That the GraphQL schema parses and every mock and resolver refers to it`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := validateConfig(opts)
			for _, warning := range result.Warnings {
				output.Warn(cmd.ErrOrStderr(), "%s", warning)
			}
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := output.JSON(w, result); err != nil {
					return err
				}
			} else {
				printValidation(w, result)
			}
			if !result.Valid {
				return fmt.Errorf("%s is invalid", result.Config)
			}
			return nil
		},
	}
}

func validateConfig(opts *globalOptions) ValidateOutput {
	cfg, path, err := opts.loadConfig()
	out := ValidateOutput{Config: path}
	if err != nil {
		out.Error = err.Error()
		return out
	}

	srv, err := server.New(cfg, server.WithLogger(logging.Nop()))
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.Valid = true
	out.Types = srv.Store().Registry().Types()
	out.Queries = srv.Schema().ListQueries()
	out.Mutations = srv.Schema().ListMutations()
	for path := range cfg.Resolvers {
		out.Resolvers = append(out.Resolvers, path)
	}
	sort.Strings(out.Resolvers)
	for _, path := range out.Resolvers {
		rc := cfg.Resolvers[path]
		if !srv.Store().CanGenerate(rc.Type) {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"%s targets %s, which has no mock and store.autoMock is off; only records written first will resolve",
				path, rc.Type))
		}
	}
	return out
}

func printValidation(w io.Writer, result ValidateOutput) {
	if !result.Valid {
		fmt.Fprintf(w, "✗ %s\n%s\n", result.Config, result.Error)
		return
	}
	fmt.Fprintf(w, "✓ %s is valid\n", result.Config)
	tw := output.Table(w)
	fmt.Fprintf(tw, "  queries:\t%d\n", len(result.Queries))
	fmt.Fprintf(tw, "  mutations:\t%d\n", len(result.Mutations))
	fmt.Fprintf(tw, "  mocks:\t%d\n", len(result.Types))
	fmt.Fprintf(tw, "  resolvers:\t%d\n", len(result.Resolvers))
	_ = tw.Flush()
}
