package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/buildinfo"
)

var versionOutput string

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch versionOutput {
			case "json":
				return printJSON(buildinfo.Get())
			case "yaml":
				return printYAML(buildinfo.Get())
			}
			fmt.Println(buildinfo.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&versionOutput, "output", "o", "", "Output format: text, json, yaml")

	return cmd
}
