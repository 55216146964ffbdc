package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/phantommail"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the email types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\n", phantommail.AllRandom, phantommail.Unspecified.Description())
		for _, c := range phantommail.Categories() {
			fmt.Fprintf(w, "%s\t%s\n", c, c.Description())
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
