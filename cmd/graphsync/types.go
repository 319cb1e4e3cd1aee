package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/micahrl/graphsync/internal/catalog"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the object types graphsync manages",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := catalog.Load()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDIRECTORY\tENDPOINT")
			for _, t := range types {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Directory, t.Endpoint)
			}
			return tw.Flush()
		},
	}
}
