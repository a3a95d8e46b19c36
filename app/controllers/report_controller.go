package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/stockdesk/app/reports"
	"github.com/shashiranjanraj/stockdesk/app/services"
	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/ctx"
)

type ReportController struct {
	reports *services.ReportService
}

// Index handles GET /api/stock-reports?from=&to=&change_type=. With
// format=csv the ledger rows are sent as a download instead.
func (rc *ReportController) Index(c *ctx.Context) {
	f, err := reports.ParseFilter(c.Query("from"), c.Query("to"), c.Query("change_type"), config.ReportLocation())
	if err != nil {
		c.Fail(err)
		return
	}
	r, err := rc.reports.Report(c.Context(), f)
	if err != nil {
		c.Fail(err)
		return
	}

	if c.Query("format") == "csv" {
		c.SetHeader("Content-Type", "text/csv; charset=utf-8")
		c.SetHeader("Content-Disposition", `attachment; filename="stock-report.csv"`)
		c.Status(http.StatusOK)
		if err := reports.WriteCSV(c.W, r.Rows, f.Location); err != nil {
			c.Log().Error("report: csv", "error", err)
		}
		return
	}
	c.Success(r)
}
