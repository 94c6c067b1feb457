// Package report renders a RunSummary into a multi-sheet workbook. The
// builder formats text from the structured analyzer fields; it never parses
// the pre-built text strings.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"insightgen/internal/analytics"
)

const (
	sheetOverview  = "Overview"
	sheetChannels  = "Channels"
	sheetAnomalies = "Anomalies"
	sheetWeather   = "Weather"
	sheetInsights  = "Insights"
)

// Builder writes analysis summaries as xlsx workbooks.
type Builder struct {
	headerStyle int
}

// NewBuilder creates a workbook builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the run summary and writes the workbook to w.
func (b *Builder) Build(summary *analytics.RunSummary, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	b.headerStyle = style

	if err := b.writeOverview(f, summary); err != nil {
		return fmt.Errorf("write overview sheet: %w", err)
	}
	if err := b.writeChannels(f, summary); err != nil {
		return fmt.Errorf("write channels sheet: %w", err)
	}
	if err := b.writeAnomalies(f, summary.Anomalies); err != nil {
		return fmt.Errorf("write anomalies sheet: %w", err)
	}
	if err := b.writeWeather(f, summary.Weather); err != nil {
		return fmt.Errorf("write weather sheet: %w", err)
	}
	if err := b.writeInsights(f, summary); err != nil {
		return fmt.Errorf("write insights sheet: %w", err)
	}

	// The default sheet is replaced by Overview.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetOverview)
	if err != nil {
		return fmt.Errorf("locate overview sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (b *Builder) newSheet(f *excelize.File, name string, headers []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("write headers for %s: %w", name, err)
	}
	end, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("compute header range for %s: %w", name, err)
	}
	if err := f.SetCellStyle(name, "A1", end, b.headerStyle); err != nil {
		return fmt.Errorf("style headers for %s: %w", name, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("compute cell for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d on %s: %w", row, sheet, err)
	}
	return nil
}

func (b *Builder) writeOverview(f *excelize.File, summary *analytics.RunSummary) error {
	if err := b.newSheet(f, sheetOverview, []string{"Metric", "Value"}); err != nil {
		return err
	}
	o := summary.KPIs.Overall
	rows := [][]interface{}{
		{"Client", summary.ClientName},
		{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Run ID", summary.ID},
		{"Total Impressions", o.TotalImpressions},
		{"Total Clicks", o.TotalClicks},
		{"Total Conversions", o.TotalConversions},
		{"Total Spend", o.TotalSpend},
		{"Total Revenue", o.TotalRevenue},
		{"CTR (%)", o.CTR},
		{"CPC", o.CPC},
		{"CVR (%)", o.CVR},
		{"CPA", o.CPA},
		{"ROAS", o.ROAS},
	}
	for i, row := range rows {
		if err := setRow(f, sheetOverview, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeChannels(f *excelize.File, summary *analytics.RunSummary) error {
	headers := []string{"Channel", "Impressions", "Clicks", "Conversions", "Spend", "Revenue", "CTR", "CPC", "CVR", "CPA", "ROAS", "Benchmark Tier (ROAS)"}
	if err := b.newSheet(f, sheetChannels, headers); err != nil {
		return err
	}

	channels := make([]string, 0, len(summary.KPIs.ByChannel))
	for channel := range summary.KPIs.ByChannel {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	row := 2
	for _, channel := range channels {
		k := summary.KPIs.ByChannel[channel]
		tier := ""
		if summary.Benchmarks != nil {
			if comp, ok := summary.Benchmarks.ByChannelComparison[channel]; ok {
				tier = string(comp["roas"].Tier)
			}
		}
		values := []interface{}{
			channel, k.Impressions, k.Clicks, k.Conversions, k.Spend, k.Revenue,
			k.CTR, k.CPC, k.CVR, k.CPA, k.ROAS, tier,
		}
		if err := setRow(f, sheetChannels, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (b *Builder) writeAnomalies(f *excelize.File, anomalies *analytics.AnomalySummary) error {
	headers := []string{"Date", "Metric", "Value", "Z-Score", "Severity", "Change vs Baseline (%)", "Group"}
	if err := b.newSheet(f, sheetAnomalies, headers); err != nil {
		return err
	}
	if anomalies == nil {
		return nil
	}
	for i, a := range anomalies.Anomalies {
		date := ""
		if !a.Date.IsZero() {
			date = a.Date.Format("2006-01-02")
		}
		values := []interface{}{date, a.Metric, a.Value, a.ZScore, string(a.Severity), a.PctChange, a.Group}
		if err := setRow(f, sheetAnomalies, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeWeather(f *excelize.File, weather *analytics.WeatherSummary) error {
	headers := []string{"Performance Metric", "Weather Variable", "Correlation", "P-Value", "Significant"}
	if err := b.newSheet(f, sheetWeather, headers); err != nil {
		return err
	}
	if weather == nil || !weather.DataAvailable {
		return setRow(f, sheetWeather, 2, []interface{}{"weather data not available"})
	}
	for i, res := range weather.Correlations {
		values := []interface{}{res.PerformanceMetric, res.WeatherVariable, res.Correlation, res.PValue, res.Significant}
		if err := setRow(f, sheetWeather, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeInsights(f *excelize.File, summary *analytics.RunSummary) error {
	headers := []string{"Source", "Kind", "Type", "Priority", "Text"}
	if err := b.newSheet(f, sheetInsights, headers); err != nil {
		return err
	}

	row := 2
	write := func(source string, insights []analytics.Insight, recs []analytics.Recommendation) error {
		for _, ins := range insights {
			if err := setRow(f, sheetInsights, row, []interface{}{source, "insight", ins.Type, "", ins.Text}); err != nil {
				return err
			}
			row++
		}
		for _, rec := range recs {
			if err := setRow(f, sheetInsights, row, []interface{}{source, "recommendation", rec.Type, string(rec.Priority), rec.Text}); err != nil {
				return err
			}
			row++
		}
		return nil
	}

	if summary.Anomalies != nil {
		if err := write("anomalies", summary.Anomalies.Insights, summary.Anomalies.Recommendations); err != nil {
			return err
		}
	}
	if summary.Weather != nil {
		if err := write("weather", summary.Weather.Insights, summary.Weather.Recommendations); err != nil {
			return err
		}
	}
	if summary.Benchmarks != nil {
		if err := write("benchmarks", summary.Benchmarks.Insights, summary.Benchmarks.Recommendations); err != nil {
			return err
		}
	}
	return nil
}
