package cli

import (
	"fmt"
	"os"

	"github.com/getmockd/mockstore/pkg/config"
	"github.com/spf13/cobra"
)

func newInitCommand(opts *globalOptions) *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example configuration file",
		Long: `Write an example configuration with a User type, a Query.user resolver
and a Mutation.updateUser resolver bound to the mock store.

The format follows the file extension (.yaml, .yml or .json).`,
		Example: `  mockstore init
  mockstore init -o mockstore.json
  mockstore init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := outputPath
			if path == "" {
				path = opts.resolveConfigPath()
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.SaveToFile(path, config.Example()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Run 'mockstore serve -c %s' to start the server.\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
