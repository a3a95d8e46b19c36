package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/reports"
	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/workerpool"
)

// stockdesk stock:update <variant-id> --type sale --amount 2 --current 10
func newStockUpdateCmd(g *globals) *cobra.Command {
	var (
		changeType string
		amount     int64
		current    int64
	)
	cmd := &cobra.Command{
		Use:   "stock:update <variant-id>",
		Short: "Record a purchase or sale for one variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ct, err := models.ParseChangeType(changeType)
			if err != nil || ct == "" {
				return fmt.Errorf("--type must be purchase or sale, got %q", changeType)
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			ed := s.Stock.Editor(models.Variant{ID: id, Stock: current})
			if err := ed.Open(); err != nil {
				return err
			}
			if err := ed.Set(ct, amount); err != nil {
				return err
			}
			res, err := ed.Submit(cmd.Context())
			if err != nil {
				return report(s.out, err)
			}
			fmt.Fprintf(s.out, "variant %d: stock %d -> %d\n", id, current, res.NewStock)
			return nil
		},
	}
	cmd.Flags().StringVar(&changeType, "type", "purchase", "purchase or sale")
	cmd.Flags().Int64Var(&amount, "amount", 0, "number of units")
	cmd.Flags().Int64Var(&current, "current", 0, "stock the variant holds now")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

// batchFile is the stock:apply input.
//
//	stocks:
//	  3: 10
//	mutations:
//	  - {variant_id: 3, change_type: sale, change_amount: 2}
type batchFile struct {
	Stocks    map[int64]int64        `yaml:"stocks"`
	Mutations []models.StockMutation `yaml:"mutations"`
}

// stockdesk stock:apply <batch.yaml>
func newStockApplyCmd(g *globals) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "stock:apply <batch.yaml>",
		Short: "Apply a batch of stock changes, variants in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var b batchFile
			if err := loadYAML(args[0], &b); err != nil {
				return err
			}
			if len(b.Mutations) == 0 {
				return errors.New("batch has no mutations")
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			pool := workerpool.New(workers)
			defer pool.Shutdown()

			results, batchErr := s.Stock.ApplyBatch(cmd.Context(), pool, b.Mutations, b.Stocks)

			w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tVARIANT\tTYPE\tAMOUNT\tRESULT")
			for i, r := range results {
				outcome := fmt.Sprintf("stock %d", r.Update.NewStock)
				if r.Err != nil {
					outcome = "failed: " + r.Err.Error()
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n", i+1, r.Mutation.VariantID, r.Mutation.ChangeType, r.Mutation.ChangeAmount, outcome)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if batchErr != nil {
				return fmt.Errorf("some stock changes failed")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "variants processed in parallel")
	return cmd
}

// stockdesk stock:report --from 2024-03-01 --to 2024-03-31 --type sale
func newStockReportCmd(g *globals) *cobra.Command {
	var (
		from, to, changeType string
		export, disk         string
	)
	cmd := &cobra.Command{
		Use:   "stock:report",
		Short: "Summarise the stock ledger for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := config.ReportLocation()
			f, err := reports.ParseFilter(from, to, changeType, loc)
			if err != nil {
				return report(cmd.OutOrStdout(), err)
			}
			s, err := boot(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			r, err := s.Reports.Report(cmd.Context(), f)
			if err != nil {
				return err
			}
			if err := reports.WriteTable(s.out, r.Summary, r.Rows, loc); err != nil {
				return err
			}
			if export == "" {
				return nil
			}
			url, err := s.Reports.Export(cmd.Context(), r, disk, export)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "\nexported %d rows to %s\n", len(r.Rows), url)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&changeType, "type", "all", "purchase, sale or all")
	cmd.Flags().StringVar(&export, "export", "", "also write the rows as CSV to this path")
	cmd.Flags().StringVar(&disk, "disk", "", "storage disk for --export (default STORAGE_DISK)")
	return cmd
}
