package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/metalpromo/coin-design/internal/prompt"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List prompt templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tFILE REQUIRED\tDESCRIPTION")
			for _, t := range prompt.List() {
				required := ""
				if t.RequiresFile {
					required = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, required, t.Description)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(newTemplatesShowCmd())
	return cmd
}

func newTemplatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template>",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := prompt.Get(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:            %s\n", t.ID)
			fmt.Fprintf(out, "Name:          %s\n", t.Name)
			fmt.Fprintf(out, "Description:   %s\n", t.Description)
			fmt.Fprintf(out, "File required: %v\n", t.RequiresFile)
			return nil
		},
	}
}
