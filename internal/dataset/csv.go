package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted by the ingestion layer, day-first variants before
// month-first ones to match the upload conventions of the source data.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FromCSV parses one uploaded CSV into a Dataset. Headers are lower-cased and
// trimmed; unknown columns are ignored; blank or unparseable numeric cells
// become NaN (missing), as do negative values, which violate the table's
// non-negativity invariant. Returns ErrEmptyDataset when no data rows parse.
func FromCSV(r io.Reader) (*Dataset, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyDataset
	}

	header := records[0]
	index := make(map[Column]int)
	for i, name := range header {
		col := Column(strings.ToLower(strings.TrimSpace(name)))
		if _, known := knownColumns[col]; known {
			index[col] = i
		}
	}

	columns := make(map[Column]bool, len(index))
	for col := range index {
		columns[col] = true
	}

	rows := make([]Observation, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		var obs Observation
		for col, idx := range index {
			if idx >= len(record) {
				if isNumericColumn(col) {
					obs.setValue(col, math.NaN())
				}
				continue
			}
			cell := strings.TrimSpace(record[idx])
			switch col {
			case ColDate:
				obs.Date = parseDate(cell)
			case ColChannel, ColCampaign, ColCity:
				switch col {
				case ColChannel:
					obs.Channel = cell
				case ColCampaign:
					obs.Campaign = cell
				case ColCity:
					obs.City = cell
				}
			default:
				v := parseNumeric(cell)
				// Counters are non-negative by invariant; a negative cell is
				// treated as missing. Temperature legitimately goes below zero.
				if v < 0 && col != ColTemperatureC {
					v = math.NaN()
				}
				obs.setValue(col, v)
			}
		}
		// Numeric columns absent from the file stay NaN, not zero.
		for _, col := range numericColumns {
			if _, ok := index[col]; !ok {
				obs.setValue(col, math.NaN())
			}
		}
		rows = append(rows, obs)
	}

	return New(rows, columns)
}

var knownColumns = map[Column]struct{}{
	ColDate: {}, ColChannel: {}, ColCampaign: {}, ColCity: {},
	ColImpressions: {}, ColClicks: {}, ColConversions: {},
	ColSpend: {}, ColRevenue: {}, ColVisits: {},
	ColTemperatureC: {}, ColRainfallMM: {},
}

func isNumericColumn(c Column) bool {
	for _, nc := range numericColumns {
		if c == nc {
			return true
		}
	}
	return false
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(cell string) time.Time {
	if cell == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseNumeric converts a cell to float64; blank and malformed values are
// missing.
func parseNumeric(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	cell = strings.ReplaceAll(cell, ",", "")
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
