package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockdesk/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globals are the persistent flags every command sees.
type globals struct {
	api   string
	token string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "stockdesk",
		Short:         "stockdesk: product and stock console for the inventory API",
		Long:          "stockdesk validates and submits products, applies stock changes and reports on the stock ledger.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.api != "" {
				config.Set("API_BASE_URL", g.api)
			}
		},
	}
	root.PersistentFlags().StringVar(&g.api, "api", "", "inventory API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "bearer token for the API (overrides API_TOKEN)")

	// Console
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newRouteListCmd(g))

	// Products
	root.AddCommand(newProductsCmd(g))
	root.AddCommand(newVariantsCmd(g))
	root.AddCommand(newProductValidateCmd())
	root.AddCommand(newProductCreateCmd(g))
	root.AddCommand(newVariantCreateCmd(g))

	// Stock
	root.AddCommand(newStockUpdateCmd(g))
	root.AddCommand(newStockApplyCmd(g))
	root.AddCommand(newStockReportCmd(g))
	return root
}
