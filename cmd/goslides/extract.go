package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	extract "github.com/drummonds/goslides/extract"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.pptx>",
		Short: "Print the text of every slide as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slides, err := extract.ParseFile(args[0])
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(slides, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	return cmd
}
