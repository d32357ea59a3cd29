package cli

import (
	"github.com/getmockd/mockstore/pkg/config"
	"github.com/spf13/cobra"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Long:  "Print the JSON Schema configuration files are validated against, for editor integration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(config.SchemaJSON())
			return err
		},
	}
}
