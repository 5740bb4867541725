package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/virtual-tryon/internal/infrastructure/catalog"
)

func newCatalogCmd(global *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the predefined garments and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := global.loadConfig()
			garments, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			items, err := garments.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSIZES\tIMAGE")
			for _, item := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", item.ID, item.Name, strings.Join(item.Sizes, ","), item.Image)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
