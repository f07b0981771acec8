package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

func newToolsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the assistant's tools and their risk tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := tools.Default()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"version": tools.CatalogVersion,
					"tools":   catalog.List(),
				})
			}

			fmt.Fprintf(out, "Tool catalog %s\n\n", tools.CatalogVersion)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTIER\tCONFIRM\tDESCRIPTION")
			for _, d := range catalog.List() {
				confirm := "no"
				if catalog.RequiresConfirmation(d.Name) {
					confirm = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, d.Tier, confirm, d.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
