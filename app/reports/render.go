package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/models"
)

// TimeLayout is the display format of a ledger timestamp.
const TimeLayout = "02 Jan 2006, 03:04 PM"

var columns = []string{"Product", "SKU", "Type", "Qty", "Old", "New", "Price", "Date"}

func row(tx models.StockTransaction, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	ts := ""
	if !tx.Timestamp.IsZero() {
		ts = tx.Timestamp.In(loc).Format(TimeLayout)
	}
	return []string{
		tx.ProductName,
		tx.SKU,
		capitalize(string(tx.ChangeType)),
		strconv.FormatInt(tx.ChangeAmount, 10),
		strconv.FormatInt(tx.OldStock, 10),
		strconv.FormatInt(tx.NewStock, 10),
		string(tx.Price),
		ts,
	}
}

// WriteTable prints the summary cards followed by the ledger rows.
func WriteTable(w io.Writer, s Summary, rows []models.StockTransaction, loc *time.Location) error {
	fmt.Fprintf(w, "Total Purchases: %d\nTotal Sales: %d\nTotal Sale Price: %s\n\n", s.Purchases, s.Sales, s.SaleValueText())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, tx := range rows {
		fmt.Fprintln(tw, strings.Join(row(tx, loc), "\t"))
	}
	return tw.Flush()
}

// WriteCSV writes the ledger rows with a header line.
func WriteCSV(w io.Writer, rows []models.StockTransaction, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, tx := range rows {
		if err := cw.Write(row(tx, loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
