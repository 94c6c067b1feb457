package analytics

import (
	"fmt"
	"log/slog"
	"math"

	"insightgen/internal/dataset"
)

// DefaultStrongCorrelation is the magnitude floor for a "strong" signal.
const DefaultStrongCorrelation = 0.6

// significanceLevel is the fixed p-value cutoff for statistical significance.
const significanceLevel = 0.05

// rainyThresholdMM splits days into rainy and non-rainy populations.
const rainyThresholdMM = 1.0

// correlationMetrics are tested against both weather variables, in output
// order.
var correlationMetrics = []dataset.Column{
	dataset.ColConversions,
	dataset.ColRevenue,
	dataset.ColVisits,
	dataset.ColClicks,
	dataset.ColImpressions,
}

// categoricalMetrics feed the rainy-day and temperature-band breakdowns.
var categoricalMetrics = []dataset.Column{
	dataset.ColConversions,
	dataset.ColRevenue,
	dataset.ColVisits,
	dataset.ColClicks,
}

type temperatureBand struct {
	name string
	min  float64
	max  float64 // exclusive
}

// temperatureBands are the fixed segmentation in reporting order.
var temperatureBands = []temperatureBand{
	{"cold", 0, 10},
	{"cool", 10, 15},
	{"mild", 15, 20},
	{"warm", 20, 25},
	{"hot", 25, 50},
}

// Correlator tests association between weather variables and performance
// metrics. All operations degrade to empty results when weather columns are
// absent; that is a reportable condition, not an error.
type Correlator struct {
	ds              *dataset.Dataset
	strongThreshold float64
	logger          *slog.Logger
}

// NewCorrelator creates a weather correlator. A non-positive threshold falls
// back to DefaultStrongCorrelation.
func NewCorrelator(ds *dataset.Dataset, strongThreshold float64, logger *slog.Logger) *Correlator {
	if strongThreshold <= 0 {
		strongThreshold = DefaultStrongCorrelation
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{ds: ds, strongThreshold: strongThreshold, logger: logger}
}

// Available reports whether both weather columns exist in the dataset.
func (c *Correlator) Available() bool {
	return c.ds.HasWeather()
}

// Correlations computes Pearson r and its two-sided p-value for every
// {weather variable} x {performance metric} pair with at least three jointly
// non-missing observations. Pairs below that floor are omitted, never
// zero-filled.
func (c *Correlator) Correlations() []CorrelationResult {
	if !c.Available() {
		return nil
	}
	weatherCols := []dataset.Column{dataset.ColTemperatureC, dataset.ColRainfallMM}

	var results []CorrelationResult
	for _, metric := range correlationMetrics {
		if !c.ds.HasColumn(metric) {
			continue
		}
		mv := c.ds.Values(metric)
		for _, weather := range weatherCols {
			wx, my := pairwise(c.ds.Values(weather), mv)
			r, p, ok := pearson(wx, my)
			if !ok {
				continue
			}
			results = append(results, CorrelationResult{
				PerformanceMetric: string(metric),
				WeatherVariable:   string(weather),
				Correlation:       r,
				PValue:            p,
				Significant:       p < significanceLevel,
			})
		}
	}
	return results
}

// isStrong applies both gates: magnitude at or above the threshold and
// statistical significance. A large coefficient that fails significance is
// not strong.
func (c *Correlator) isStrong(res CorrelationResult) bool {
	return math.Abs(res.Correlation) >= c.strongThreshold && res.Significant
}

// StrongCorrelations filters Correlations down to strong signals, preserving
// order.
func (c *Correlator) StrongCorrelations() []CorrelationResult {
	var strong []CorrelationResult
	for _, res := range c.Correlations() {
		if c.isStrong(res) {
			strong = append(strong, res)
		}
	}
	return strong
}

// RainyDays splits performance at rainfall above rainyThresholdMM and
// reports per-metric means with the percentage swing on rainy days. Metrics
// are compared only when both populations are non-empty.
func (c *Correlator) RainyDays() RainyDayAnalysis {
	analysis := RainyDayAnalysis{Metrics: map[string]RainyMetric{}}
	if !c.ds.HasColumn(dataset.ColRainfallMM) {
		return analysis
	}

	// Rows without a rainfall reading belong to neither population.
	var rainy, dry []dataset.Observation
	for _, row := range c.ds.Rows {
		rain := row.Value(dataset.ColRainfallMM)
		if math.IsNaN(rain) {
			continue
		}
		if rain > rainyThresholdMM {
			rainy = append(rainy, row)
		} else {
			dry = append(dry, row)
		}
	}
	analysis.RainyDaysCount = len(rainy)
	analysis.NonRainyDaysCount = len(dry)
	if len(rainy) == 0 || len(dry) == 0 {
		return analysis
	}

	for _, metric := range categoricalMetrics {
		if !c.ds.HasColumn(metric) {
			continue
		}
		rainyAvg, rainyOK := meanRows(rainy, metric)
		dryAvg, dryOK := meanRows(dry, metric)
		if !rainyOK || !dryOK {
			continue
		}
		pct := 0.0
		if dryAvg > 0 {
			pct = (rainyAvg - dryAvg) / dryAvg * 100
		}
		interpretation := "decrease"
		if pct > 0 {
			interpretation = "increase"
		}
		analysis.Metrics[string(metric)] = RainyMetric{
			RainyAvg:       rainyAvg,
			NonRainyAvg:    dryAvg,
			PctChange:      pct,
			Interpretation: interpretation,
		}
	}
	return analysis
}

// TemperatureRanges segments performance into the fixed temperature bands.
// Bands with zero matching rows are omitted entirely.
func (c *Correlator) TemperatureRanges() map[string]BandAnalysis {
	out := map[string]BandAnalysis{}
	if !c.ds.HasColumn(dataset.ColTemperatureC) {
		return out
	}

	for _, band := range temperatureBands {
		var rows []dataset.Observation
		for _, row := range c.ds.Rows {
			t := row.Value(dataset.ColTemperatureC)
			if !math.IsNaN(t) && t >= band.min && t < band.max {
				rows = append(rows, row)
			}
		}
		if len(rows) == 0 {
			continue
		}
		analysis := BandAnalysis{Count: len(rows), Metrics: map[string]BandMetric{}}
		for _, metric := range categoricalMetrics {
			if !c.ds.HasColumn(metric) {
				continue
			}
			analysis.Metrics[string(metric)] = summarizeRows(rows, metric)
		}
		out[band.name] = analysis
	}
	return out
}

// ByChannelImpact scopes the conversion correlations to each channel's
// subset. Channels with fewer than three jointly valid rows are skipped.
func (c *Correlator) ByChannelImpact() map[string]ChannelWeatherImpact {
	out := map[string]ChannelWeatherImpact{}
	if !c.Available() || !c.ds.HasColumn(dataset.ColChannel) || !c.ds.HasColumn(dataset.ColConversions) {
		return out
	}

	byChannel := make(map[string][]dataset.Observation)
	var order []string
	for _, row := range c.ds.Rows {
		if _, seen := byChannel[row.Channel]; !seen {
			order = append(order, row.Channel)
		}
		byChannel[row.Channel] = append(byChannel[row.Channel], row)
	}

	for _, channel := range order {
		rows := byChannel[channel]
		var temps, rains, convs []float64
		for _, row := range rows {
			t := row.Value(dataset.ColTemperatureC)
			r := row.Value(dataset.ColRainfallMM)
			v := row.Value(dataset.ColConversions)
			if math.IsNaN(t) || math.IsNaN(r) || math.IsNaN(v) {
				continue
			}
			temps = append(temps, t)
			rains = append(rains, r)
			convs = append(convs, v)
		}
		tr, tp, tok := pearson(temps, convs)
		rr, rp, rok := pearson(rains, convs)
		if !tok || !rok {
			continue
		}
		out[channel] = ChannelWeatherImpact{
			Temperature: CorrelationStat{Value: tr, PValue: tp, Significant: tp < significanceLevel},
			Rainfall:    CorrelationStat{Value: rr, PValue: rp, Significant: rp < significanceLevel},
		}
	}
	return out
}

// Insights derives descriptive findings: one per strong correlation, one per
// rainy-day swing beyond 10 percent, and a best/worst temperature band
// comparison when the bands actually differ.
func (c *Correlator) Insights() []Insight {
	var insights []Insight

	for _, res := range c.StrongCorrelations() {
		direction := "decreases"
		if res.Correlation > 0 {
			direction = "increases"
		}
		insights = append(insights, Insight{
			Type:    "correlation",
			Metric:  res.PerformanceMetric,
			Weather: res.WeatherVariable,
			Value:   res.Correlation,
			Detail:  res,
			Text: fmt.Sprintf("Performance correlates with %s: %s %s when %s increases (r=%.2f)",
				res.WeatherVariable, res.PerformanceMetric, direction, res.WeatherVariable, res.Correlation),
		})
	}

	rainy := c.RainyDays()
	for _, metric := range categoricalMetrics {
		data, ok := rainy.Metrics[string(metric)]
		if !ok || math.Abs(data.PctChange) <= 10 {
			continue
		}
		insights = append(insights, Insight{
			Type:   "rainy_day",
			Metric: string(metric),
			Value:  data.PctChange,
			Text:   fmt.Sprintf("On rainy days, %s %ss by %.1f%%", metric, data.Interpretation, math.Abs(data.PctChange)),
		})
	}

	if best, worst, ok := c.bandExtremes(); ok && best != worst {
		insights = append(insights, Insight{
			Type:   "temperature_range",
			Detail: map[string]string{"best": best, "worst": worst},
			Text:   fmt.Sprintf("Performance peaks during %s weather and dips during %s weather", best, worst),
		})
	}

	return insights
}

// bandExtremes names the best and worst temperature bands by average
// conversions. Ties keep the earlier band in the fixed order.
func (c *Correlator) bandExtremes() (best, worst string, ok bool) {
	ranges := c.TemperatureRanges()
	if len(ranges) == 0 {
		return "", "", false
	}
	bestAvg := math.Inf(-1)
	worstAvg := math.Inf(1)
	for _, band := range temperatureBands {
		analysis, present := ranges[band.name]
		if !present {
			continue
		}
		avg := analysis.Metrics[string(dataset.ColConversions)].Avg
		if avg > bestAvg {
			bestAvg, best = avg, band.name
		}
		if avg < worstAvg {
			worstAvg, worst = avg, band.name
		}
	}
	return best, worst, best != ""
}

// Recommendations derives prescriptive findings: budget shifts per strong
// correlation (direction follows the sign), rainy-day spend moves when the
// conversion swing exceeds 10 percent, and a campaign-timing entry when more
// than one temperature band has data.
func (c *Correlator) Recommendations() []Recommendation {
	var recs []Recommendation

	for _, res := range c.StrongCorrelations() {
		impact := fmt.Sprintf("%.0f%% correlation", math.Abs(res.Correlation)*100)
		if res.Correlation > 0 {
			recs = append(recs, Recommendation{
				Type:            "increase_budget_when_favorable",
				Priority:        PriorityHigh,
				Metric:          res.PerformanceMetric,
				EstimatedImpact: impact,
				Text: fmt.Sprintf("Increase marketing budget when %s is favorable (high), as it correlates with higher %s",
					res.WeatherVariable, res.PerformanceMetric),
			})
		} else {
			recs = append(recs, Recommendation{
				Type:            "shift_to_digital_when_unfavorable",
				Priority:        PriorityHigh,
				Metric:          res.PerformanceMetric,
				EstimatedImpact: impact,
				Text: fmt.Sprintf("When %s is unfavorable, shift budget toward digital channels as %s drops",
					res.WeatherVariable, res.PerformanceMetric),
			})
		}
	}

	rainy := c.RainyDays()
	if conv, ok := rainy.Metrics[string(dataset.ColConversions)]; ok {
		switch {
		case conv.PctChange > 10:
			recs = append(recs, Recommendation{
				Type:            "capitalize_on_rainy_days",
				Priority:        PriorityHigh,
				Metric:          string(dataset.ColConversions),
				EstimatedImpact: fmt.Sprintf("+%.1f%% conversions", conv.PctChange),
				Text: fmt.Sprintf("Conversions increase %.1f%% on rainy days. Increase digital ad spend when rain is forecasted.",
					conv.PctChange),
			})
		case conv.PctChange < -10:
			recs = append(recs, Recommendation{
				Type:            "reduce_spend_on_rainy_days",
				Priority:        PriorityMedium,
				Metric:          string(dataset.ColConversions),
				EstimatedImpact: fmt.Sprintf("Save %.1f%% wasted spend", math.Abs(conv.PctChange)),
				Text: fmt.Sprintf("Conversions drop %.1f%% on rainy days. Consider reducing outdoor/foot-traffic focused campaigns.",
					math.Abs(conv.PctChange)),
			})
		}
	}

	if len(c.TemperatureRanges()) > 1 {
		if best, _, ok := c.bandExtremes(); ok {
			recs = append(recs, Recommendation{
				Type:            "optimize_for_best_temperature",
				Priority:        PriorityMedium,
				EstimatedImpact: "Maximize campaign ROI",
				Text: fmt.Sprintf("Performance peaks during %s weather. Plan major campaigns and promotions for these conditions.",
					best),
			})
		}
	}

	return recs
}

// Summary runs the full weather analysis. When weather data is absent only
// DataAvailable is meaningful.
func (c *Correlator) Summary() *WeatherSummary {
	s := &WeatherSummary{
		DataAvailable:     c.Available(),
		RainyDayAnalysis:  RainyDayAnalysis{Metrics: map[string]RainyMetric{}},
		TemperatureRanges: map[string]BandAnalysis{},
		ByChannelImpact:   map[string]ChannelWeatherImpact{},
	}
	if !s.DataAvailable {
		c.logger.Debug("weather analysis skipped", "reason", "weather columns absent")
		return s
	}
	s.Correlations = c.Correlations()
	s.StrongCorrelations = c.StrongCorrelations()
	s.RainyDayAnalysis = c.RainyDays()
	s.TemperatureRanges = c.TemperatureRanges()
	s.ByChannelImpact = c.ByChannelImpact()
	s.Insights = c.Insights()
	s.Recommendations = c.Recommendations()
	c.logger.Debug("weather analysis complete",
		"correlations", len(s.Correlations),
		"strong", len(s.StrongCorrelations),
		"channels", len(s.ByChannelImpact),
	)
	return s
}

// meanRows averages a column over a row subset; ok is false when every value
// is missing.
func meanRows(rows []dataset.Observation, col dataset.Column) (float64, bool) {
	sum, n := 0.0, 0
	for _, row := range rows {
		if v := row.Value(col); !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// summarizeRows computes the avg/total/max/min block for one metric within a
// band.
func summarizeRows(rows []dataset.Observation, col dataset.Column) BandMetric {
	m := BandMetric{Max: math.Inf(-1), Min: math.Inf(1)}
	n := 0
	for _, row := range rows {
		v := row.Value(col)
		if math.IsNaN(v) {
			continue
		}
		m.Total += v
		if v > m.Max {
			m.Max = v
		}
		if v < m.Min {
			m.Min = v
		}
		n++
	}
	if n == 0 {
		return BandMetric{}
	}
	m.Avg = m.Total / float64(n)
	return m
}
