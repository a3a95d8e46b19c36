package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockdesk/app/forms"
	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/schema"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
)

// stockdesk products: one page of the product list.
func newProductsCmd(g *globals) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			p, err := s.Products.List(cmd.Context(), page)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME\tHSN\tSTOCK\tACTIVE")
			for _, pr := range p.Results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n",
					pr.ID, pr.ProductCode, pr.ProductName, pr.HSNCode, pr.TotalStock.String(), pr.Active)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "\n%d products, page %d\n", p.Count, max(page, 1))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

// stockdesk variants <product-id>
func newVariantsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "variants <product-id>",
		Short: "List the variants of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			vs, err := s.Products.Variants(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSKU\tPRICE\tSTOCK\tOPTIONS")
			for _, v := range vs {
				keys := make([]string, len(v.Options))
				for i, o := range v.Options {
					keys[i] = o.Key()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", v.ID, v.SKU, v.Price.StringFixed(2), v.Stock, strings.Join(keys, ", "))
			}
			return w.Flush()
		},
	}
}

// stockdesk product:validate <draft.yaml>: local checks only, no API call.
func newProductValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product:validate <draft.yaml>",
		Short: "Validate a product draft without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d models.ProductDraft
			if err := loadYAML(args[0], &d); err != nil {
				return err
			}
			form := forms.Load(schema.New(schema.LimitsFromConfig()), d)
			if errs := form.Validate(); len(errs) > 0 {
				return report(cmd.OutOrStdout(), apperr.ValidationErr(errs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d variants)\n", args[0], form.VariantCount())
			return nil
		},
	}
}

// stockdesk product:create <draft.yaml>
func newProductCreateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "product:create <draft.yaml>",
		Short: "Validate a product draft and submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var d models.ProductDraft
			if err := loadYAML(args[0], &d); err != nil {
				return err
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			form := s.Products.LoadForm(d)
			created, err := s.Products.Create(cmd.Context(), form)
			if err != nil {
				if errs := form.Errors(); len(errs) > 0 {
					printFields(s.out, errs)
				}
				return err
			}
			fmt.Fprintf(s.out, "created product %d (%s)\n", created.ID, created.ProductName)
			return nil
		},
	}
}

// stockdesk variant:create <product-id> <variant.yaml>
func newVariantCreateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "variant:create <product-id> <variant.yaml>",
		Short: "Add a variant to an existing product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var v models.VariantDraft
			if err := loadYAML(args[1], &v); err != nil {
				return err
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			created, err := s.Products.CreateVariant(cmd.Context(), id, v)
			if err != nil {
				return report(s.out, err)
			}
			fmt.Fprintf(s.out, "created variant %d (%s)\n", created.ID, created.SKU)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer, got %q", s)
	}
	return id, nil
}
