// Package dataset holds the normalized observation table every analyzer
// consumes. A Dataset is built once by the ingestion layer and treated as
// immutable afterwards: analyzers read it, never write it.
//
// Missing numeric cells are represented as math.NaN(), never as zero. A
// column is "present" when its header appeared in the source file, even if
// every value in it is missing.
package dataset

import (
	"errors"
	"math"
	"time"
)

// ErrEmptyDataset is returned when no usable tabular input exists at all.
// This is the one fatal input condition: every analyzer requires a non-empty
// dataset to operate meaningfully.
var ErrEmptyDataset = errors.New("dataset: no usable data rows")

// Column identifies a normalized (lower-cased) column of the observation table.
type Column string

const (
	ColDate         Column = "date"
	ColChannel      Column = "channel"
	ColCampaign     Column = "campaign"
	ColCity         Column = "city"
	ColImpressions  Column = "impressions"
	ColClicks       Column = "clicks"
	ColConversions  Column = "conversions"
	ColSpend        Column = "spend"
	ColRevenue      Column = "revenue"
	ColVisits       Column = "visits"
	ColTemperatureC Column = "temperature_c"
	ColRainfallMM   Column = "rainfall_mm"
)

// numericColumns lists every numeric column in canonical order. Analyzer
// sweeps that auto-select metrics rely on this order being stable.
var numericColumns = []Column{
	ColImpressions, ColClicks, ColConversions,
	ColSpend, ColRevenue, ColVisits,
	ColTemperatureC, ColRainfallMM,
}

// Observation is one row of the table. Numeric fields use NaN for missing
// values so that aggregations can exclude them from denominators instead of
// counting them as zero.
type Observation struct {
	Date     time.Time `json:"date"`
	Channel  string    `json:"channel,omitempty"`
	Campaign string    `json:"campaign,omitempty"`
	City     string    `json:"city,omitempty"`

	Impressions  float64 `json:"impressions"`
	Clicks       float64 `json:"clicks"`
	Conversions  float64 `json:"conversions"`
	Spend        float64 `json:"spend"`
	Revenue      float64 `json:"revenue"`
	Visits       float64 `json:"visits"`
	TemperatureC float64 `json:"temperature_c"`
	RainfallMM   float64 `json:"rainfall_mm"`
}

// Value returns the observation's value for a numeric column, NaN when the
// column is not numeric.
func (o Observation) Value(c Column) float64 {
	switch c {
	case ColImpressions:
		return o.Impressions
	case ColClicks:
		return o.Clicks
	case ColConversions:
		return o.Conversions
	case ColSpend:
		return o.Spend
	case ColRevenue:
		return o.Revenue
	case ColVisits:
		return o.Visits
	case ColTemperatureC:
		return o.TemperatureC
	case ColRainfallMM:
		return o.RainfallMM
	default:
		return math.NaN()
	}
}

func (o *Observation) setValue(c Column, v float64) {
	switch c {
	case ColImpressions:
		o.Impressions = v
	case ColClicks:
		o.Clicks = v
	case ColConversions:
		o.Conversions = v
	case ColSpend:
		o.Spend = v
	case ColRevenue:
		o.Revenue = v
	case ColVisits:
		o.Visits = v
	case ColTemperatureC:
		o.TemperatureC = v
	case ColRainfallMM:
		o.RainfallMM = v
	}
}

// Label returns the observation's value for a categorical column.
func (o Observation) Label(c Column) string {
	switch c {
	case ColChannel:
		return o.Channel
	case ColCampaign:
		return o.Campaign
	case ColCity:
		return o.City
	default:
		return ""
	}
}

// Dataset is an ordered, immutable sequence of observations plus the set of
// columns that were present in the source upload. Column presence, not a
// fixed schema, determines which analyses run downstream.
type Dataset struct {
	Rows    []Observation
	columns map[Column]bool
}

// New builds a dataset from pre-parsed rows and an explicit column set.
// Missing numeric fields in rows must already be NaN.
func New(rows []Observation, columns map[Column]bool) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	cols := make(map[Column]bool, len(columns))
	for c, ok := range columns {
		if ok {
			cols[c] = true
		}
	}
	return &Dataset{Rows: rows, columns: cols}, nil
}

// HasColumn reports whether the column appeared in the source data.
func (d *Dataset) HasColumn(c Column) bool {
	return d.columns[c]
}

// HasWeather reports whether weather analysis is possible: both weather
// columns must be present.
func (d *Dataset) HasWeather() bool {
	return d.HasColumn(ColTemperatureC) && d.HasColumn(ColRainfallMM)
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.Rows) }

// NumericColumns returns the numeric columns present in the dataset, in
// canonical order.
func (d *Dataset) NumericColumns() []Column {
	var cols []Column
	for _, c := range numericColumns {
		if d.columns[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// Values returns the column's values aligned with Rows; missing cells are NaN.
func (d *Dataset) Values(c Column) []float64 {
	vals := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		vals[i] = row.Value(c)
	}
	return vals
}

// MaxDate returns the latest observation date, zero when no date column
// exists or no row carries a parseable date.
func (d *Dataset) MaxDate() time.Time {
	var max time.Time
	if !d.columns[ColDate] {
		return max
	}
	for _, row := range d.Rows {
		if row.Date.After(max) {
			max = row.Date
		}
	}
	return max
}

// Clone returns a deep copy. Callers that must guarantee isolation between
// concurrent analyses hand each analysis its own clone.
func (d *Dataset) Clone() *Dataset {
	rows := make([]Observation, len(d.Rows))
	copy(rows, d.Rows)
	cols := make(map[Column]bool, len(d.columns))
	for c := range d.columns {
		cols[c] = true
	}
	return &Dataset{Rows: rows, columns: cols}
}

// Merge concatenates datasets in order; the column set is the union. Returns
// ErrEmptyDataset when nothing usable is supplied.
func Merge(datasets ...*Dataset) (*Dataset, error) {
	var rows []Observation
	cols := make(map[Column]bool)
	for _, ds := range datasets {
		if ds == nil {
			continue
		}
		rows = append(rows, ds.Rows...)
		for c := range ds.columns {
			cols[c] = true
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return &Dataset{Rows: rows, columns: cols}, nil
}
