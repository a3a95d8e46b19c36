package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

type ChangeType string

const (
	Purchase ChangeType = "purchase"
	Sale     ChangeType = "sale"
)

// ParseChangeType accepts "purchase", "sale" and, for filters, "all" or ""
// (both returning "").
func ParseChangeType(s string) (ChangeType, error) {
	switch ct := ChangeType(strings.ToLower(strings.TrimSpace(s))); ct {
	case Purchase, Sale:
		return ct, nil
	case "", "all":
		return "", nil
	default:
		return "", fmt.Errorf("unknown change type %q (want purchase, sale or all)", s)
	}
}

// StockMutation is a purchase or sale delta for one variant.
type StockMutation struct {
	VariantID    int64      `json:"-"             yaml:"variant_id"`
	ChangeType   ChangeType `json:"change_type"   yaml:"change_type"`
	ChangeAmount int64      `json:"change_amount" yaml:"change_amount"`
}

// Delta is the signed effect on stock.
func (m StockMutation) Delta() int64 {
	if m.ChangeType == Sale {
		return -m.ChangeAmount
	}
	return m.ChangeAmount
}

// StockUpdate is the API's answer to a stock mutation.
type StockUpdate struct {
	NewStock int64  `json:"new_stock"`
	Message  string `json:"message,omitempty"`
}

// StockTransaction is one row of the stock ledger, produced by the API.
type StockTransaction struct {
	ID           int64      `json:"id"`
	ProductName  string     `json:"product_name"`
	SKU          string     `json:"sku"`
	ChangeType   ChangeType `json:"change_type"`
	ChangeAmount int64      `json:"change_amount"`
	OldStock     int64      `json:"old_stock"`
	NewStock     int64      `json:"new_stock"`
	Price        Amount     `json:"price"`
	Timestamp    Timestamp  `json:"timestamp"`
}

// Amount is a money value as the API sends it: usually a decimal string,
// sometimes a bare number or null.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(b)
	}
	return nil
}

// Decimal parses the amount. Empty or malformed amounts report ok=false.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Timestamp accepts RFC 3339 as well as the zone-less layouts some API
// deployments emit.
type Timestamp struct {
	time.Time
}

// timestampLoc is the zone assumed for timestamps that carry none.
var timestampLoc atomic.Pointer[time.Location]

// SetTimestampLocation sets the zone zone-less timestamps are read in. It
// should match the zone reports are filtered in. Nil restores UTC.
func SetTimestampLocation(loc *time.Location) {
	timestampLoc.Store(loc)
}

func timestampLocation() *time.Location {
	if loc := timestampLoc.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	loc := timestampLocation()
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
