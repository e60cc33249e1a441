package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivoronin/dupehound/internal/pathtoken"
)

// newDecodeCmd creates the decode subcommand.
func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode TOKEN...",
		Short: "Print the paths behind result tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, token := range args {
				path, err := pathtoken.Decode(token)
				if err != nil {
					return fmt.Errorf("%q: %w", token, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}
