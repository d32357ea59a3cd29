package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/getmockd/mockstore/pkg/cli/internal/output"
	"github.com/getmockd/mockstore/pkg/graphql"
	"github.com/getmockd/mockstore/pkg/server"
	"github.com/spf13/cobra"
)

func newQueryCommand(opts *globalOptions) *cobra.Command {
	var (
		queries       []string
		files         []string
		variablesJSON string
		operationName string
		showState     bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run GraphQL operations against a fresh store",
		Long: `Run one or more GraphQL operations in-process, in order, against a single
fresh store. Writes made by earlier operations are visible to later ones.

Each response is printed as JSON on its own line.`,
		Example: `  mockstore query -q '{ user(id: "1") { id name } }'

  mockstore query \
    -q 'mutation { updateUser(id: "1", input: {name: "Ada"}) { user { name } } }' \
    -q '{ user(id: "1") { name } }'

  mockstore query -f ./get-user.graphql -v '{"id": "1"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := append([]string(nil), queries...)
			for _, f := range files {
				data, err := os.ReadFile(f)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", f, err)
				}
				docs = append(docs, string(data))
			}
			if len(docs) == 0 {
				return errors.New("at least one --query or --file is required")
			}

			var vars map[string]interface{}
			if variablesJSON != "" {
				if err := json.Unmarshal([]byte(variablesJSON), &vars); err != nil {
					return fmt.Errorf("invalid --variables JSON: %w", err)
				}
			}

			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, server.WithLogger(opts.logger(cfg, cmd.ErrOrStderr())))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			enc := json.NewEncoder(w)
			failed := 0
			for _, doc := range docs {
				resp := srv.Execute(cmd.Context(), &graphql.GraphQLRequest{
					Query:         doc,
					OperationName: operationName,
					Variables:     vars,
				})
				if len(resp.Errors) > 0 {
					failed++
				}
				if err := enc.Encode(resp); err != nil {
					return err
				}
			}

			if showState {
				if err := output.JSON(cmd.ErrOrStderr(), srv.Store().Overview()); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d operations returned errors", failed, len(docs))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "GraphQL document (repeatable)")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "File containing a GraphQL document (repeatable)")
	cmd.Flags().StringVarP(&variablesJSON, "variables", "v", "", "Variables as a JSON object, applied to every operation")
	cmd.Flags().StringVar(&operationName, "operation", "", "Operation name to execute")
	cmd.Flags().BoolVar(&showState, "state", false, "Print the store overview to stderr afterwards")
	return cmd
}
