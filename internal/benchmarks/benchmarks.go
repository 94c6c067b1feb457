// Package benchmarks loads the external industry benchmark table: a JSON
// document keyed by channel name plus the literal key "overall", each entry
// carrying average rates for the five efficiency metrics. A missing or
// malformed table degrades to the not-loaded state instead of failing the
// analysis run.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
)

// Entry holds one channel's benchmark values.
type Entry struct {
	AvgCTR            float64 `json:"avg_ctr" validate:"gte=0"`
	AvgCPC            float64 `json:"avg_cpc" validate:"gte=0"`
	AvgConversionRate float64 `json:"avg_conversion_rate" validate:"gte=0"`
	AvgCPA            float64 `json:"avg_cpa" validate:"gte=0"`
	AvgROAS           float64 `json:"avg_roas" validate:"gte=0"`
}

// Metric returns a benchmark value by the client-side metric name it
// corresponds to.
func (e Entry) Metric(name string) (float64, bool) {
	switch name {
	case "ctr":
		return e.AvgCTR, true
	case "cpc":
		return e.AvgCPC, true
	case "cvr":
		return e.AvgConversionRate, true
	case "cpa":
		return e.AvgCPA, true
	case "roas":
		return e.AvgROAS, true
	default:
		return 0, false
	}
}

// Table maps channel names (and "overall") to benchmark entries. The zero
// value is a valid not-loaded table.
type Table map[string]Entry

// Loaded reports whether any benchmark entries exist.
func (t Table) Loaded() bool {
	return len(t) > 0
}

// Overall returns the cross-channel entry.
func (t Table) Overall() (Entry, bool) {
	e, ok := t["overall"]
	return e, ok
}

// For returns the entry for a channel, falling back to "overall" when no
// channel-specific entry exists.
func (t Table) For(channel string) (Entry, bool) {
	if e, ok := t[channel]; ok {
		return e, true
	}
	return t.Overall()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a benchmark table from JSON and validates that every value
// is non-negative.
func Parse(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode benchmarks: %w", err)
	}
	for channel, entry := range t {
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("validate benchmarks for %q: %w", channel, err)
		}
	}
	return t, nil
}

// Load reads a benchmark table from disk. Callers treat any error as the
// not-loaded condition rather than a fatal failure.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open benchmarks: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
