// Package reports filters stock ledger rows and derives the report totals.
// Everything here is a pure function of its inputs.
package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/pkg/apperr"
)

// DateLayout is how report bounds travel in queries and cache keys.
const DateLayout = "2006-01-02"

// Filter selects ledger rows by calendar day and change type. Both bounds are
// inclusive and either may be nil. An empty ChangeType means all types. The
// zero Filter is "clear filters".
type Filter struct {
	From       *time.Time
	To         *time.Time
	ChangeType models.ChangeType
	Location   *time.Location
}

// ParseDate reads a YYYY-MM-DD day in loc. An empty string is no bound.
func ParseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("reports: bad date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

// ParseFilter builds a Filter from the text the report selector and the CLI
// flags carry. Every unreadable input is reported under its own field.
func ParseFilter(from, to, changeType string, loc *time.Location) (Filter, error) {
	f := Filter{Location: loc}
	fields := map[string]string{}
	var err error
	if f.From, err = ParseDate(from, loc); err != nil {
		fields["from"] = "Start date must be a YYYY-MM-DD date"
	}
	if f.To, err = ParseDate(to, loc); err != nil {
		fields["to"] = "End date must be a YYYY-MM-DD date"
	}
	if f.ChangeType, err = models.ParseChangeType(changeType); err != nil {
		fields["change_type"] = "Change type must be 'purchase', 'sale' or 'all'"
	}
	if len(fields) > 0 {
		return f, apperr.ValidationErr(fields)
	}
	return f, f.Validate()
}

func (f Filter) loc() *time.Location {
	if f.Location != nil {
		return f.Location
	}
	return time.Local
}

// Validate rejects an end day before the start day.
func (f Filter) Validate() error {
	fields := map[string]string{}
	if f.From != nil && f.To != nil && day(*f.To, f.loc()).Before(day(*f.From, f.loc())) {
		fields["to"] = "End date cannot be before start date"
	}
	switch f.ChangeType {
	case "", models.Purchase, models.Sale:
	default:
		fields["change_type"] = "Change type must be 'purchase', 'sale' or 'all'"
	}
	if len(fields) > 0 {
		return apperr.ValidationErr(fields)
	}
	return nil
}

// FromText and ToText render the bounds as YYYY-MM-DD, or "" when unset.
func (f Filter) FromText() string { return dateText(f.From, f.loc()) }

func (f Filter) ToText() string { return dateText(f.To, f.loc()) }

// TypeText is the change type as the report selector shows it.
func (f Filter) TypeText() string {
	if f.ChangeType == "" {
		return "all"
	}
	return string(f.ChangeType)
}

// Params are the stock report query parameters. Unset bounds and "all" are
// left out.
func (f Filter) Params() map[string]string {
	p := map[string]string{}
	if s := f.FromText(); s != "" {
		p["timestamp__gte"] = s
	}
	if s := f.ToText(); s != "" {
		p["timestamp__lte"] = s
	}
	if f.ChangeType != "" {
		p["change_type"] = string(f.ChangeType)
	}
	return p
}

// Match reports whether tx falls inside the filter.
func (f Filter) Match(tx models.StockTransaction) bool {
	if f.ChangeType != "" && tx.ChangeType != f.ChangeType {
		return false
	}
	if f.From == nil && f.To == nil {
		return true
	}
	d := day(tx.Timestamp.Time, f.loc())
	if f.From != nil && d.Before(day(*f.From, f.loc())) {
		return false
	}
	if f.To != nil && d.After(day(*f.To, f.loc())) {
		return false
	}
	return true
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func dateText(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(DateLayout)
}
