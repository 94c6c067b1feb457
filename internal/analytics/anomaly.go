package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"insightgen/internal/dataset"
)

// DefaultZScoreThreshold flags values more than two standard deviations from
// the population mean (~95% band).
const DefaultZScoreThreshold = 2.0

// DefaultLookbackDays bounds the "recent anomalies" view.
const DefaultLookbackDays = 7

// Detector flags statistically unusual values per metric. Detection results
// are returned to the caller, never accumulated on the detector, so one
// detector value is safe to reuse and re-running on an unchanged dataset
// yields identical output.
type Detector struct {
	ds           *dataset.Dataset
	threshold    float64
	lookbackDays int
	logger       *slog.Logger
}

// NewDetector creates a detector. A non-positive threshold falls back to
// DefaultZScoreThreshold, non-positive lookback to DefaultLookbackDays.
func NewDetector(ds *dataset.Dataset, threshold float64, lookbackDays int, logger *slog.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultZScoreThreshold
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{ds: ds, threshold: threshold, lookbackDays: lookbackDays, logger: logger}
}

// ZScores computes |value-mean|/stddev for every row of the metric against
// the whole dataset. Missing cells keep NaN. Fewer than two non-missing
// values yields nil (no baseline); zero standard deviation yields all zeros,
// so a constant series can never flag.
func (d *Detector) ZScores(metric dataset.Column) []float64 {
	values := d.ds.Values(metric)
	mean, std, ok := meanStd(values)
	if !ok {
		return nil
	}
	scores := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			scores[i] = math.NaN()
		case std == 0:
			scores[i] = 0
		default:
			scores[i] = math.Abs(v-mean) / std
		}
	}
	return scores
}

// Detect flags anomalies for one metric. With an empty groupBy the whole
// dataset is the population; otherwise each distinct group value forms its
// own population, and groups with fewer than three rows are skipped. The
// flag gate is strict: z must exceed the threshold, never equal it.
func (d *Detector) Detect(metric dataset.Column, groupBy dataset.Column) []Anomaly {
	if !d.ds.HasColumn(metric) {
		return nil
	}
	if groupBy != "" && d.ds.HasColumn(groupBy) {
		return d.detectGrouped(metric, groupBy)
	}
	return d.detectRows(d.ds.Rows, metric, "", "")
}

func (d *Detector) detectGrouped(metric, groupBy dataset.Column) []Anomaly {
	var order []string
	groups := make(map[string][]dataset.Observation)
	for _, row := range d.ds.Rows {
		label := row.Label(groupBy)
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], row)
	}

	var anomalies []Anomaly
	for _, label := range order {
		rows := groups[label]
		if len(rows) < 3 {
			continue
		}
		anomalies = append(anomalies, d.detectRows(rows, metric, label, string(groupBy))...)
	}
	return anomalies
}

// detectRows runs detection over one population (whole dataset or one
// group's subset). The baseline recorded on each anomaly is that
// population's mean.
func (d *Detector) detectRows(rows []dataset.Observation, metric dataset.Column, group, groupCol string) []Anomaly {
	values := make([]float64, len(rows))
	for i, row := range rows {
		values[i] = row.Value(metric)
	}
	mean, std, ok := meanStd(values)
	if !ok || std == 0 {
		return nil
	}

	var anomalies []Anomaly
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		z := math.Abs(v-mean) / std
		if z <= d.threshold {
			continue
		}
		anomalies = append(anomalies, d.newAnomaly(rows[i].Date, metric, v, z, mean, group, groupCol))
	}
	return anomalies
}

func (d *Detector) newAnomaly(date time.Time, metric dataset.Column, value, z, mean float64, group, groupCol string) Anomaly {
	severity := SeverityForZ(z)
	pct := 0.0
	if mean != 0 {
		pct = (value - mean) / mean * 100
	}
	a := Anomaly{
		Date:         date,
		Metric:       string(metric),
		Value:        value,
		ZScore:       z,
		Severity:     severity,
		PctChange:    pct,
		BaselineMean: mean,
		Group:        group,
		GroupCol:     groupCol,
	}
	if group != "" {
		a.Text = fmt.Sprintf("%s: %s for %s=%s = %.2f (z-score %.2f, %+.1f%% from baseline)",
			severityLabel(severity), metric, groupCol, group, value, z, pct)
	} else {
		a.Text = fmt.Sprintf("%s: %s = %.2f (z-score %.2f, %+.1f%% from baseline)",
			severityLabel(severity), metric, value, z, pct)
	}
	return a
}

// DetectRecent restricts flags to observations dated within the last days of
// the dataset's maximum date. Recency filters the output only: z-scores are
// still computed against the full population.
func (d *Detector) DetectRecent(metric dataset.Column, days int) []Anomaly {
	if !d.ds.HasColumn(dataset.ColDate) || !d.ds.HasColumn(metric) {
		return nil
	}
	if days <= 0 {
		days = d.lookbackDays
	}
	cutoff := d.ds.MaxDate().AddDate(0, 0, -days)

	var recent []Anomaly
	for _, a := range d.detectRows(d.ds.Rows, metric, "", "") {
		if a.Date.Before(cutoff) {
			continue
		}
		a.Text = fmt.Sprintf("[%s] %s: %+.1f%%", a.Date.Format("2006-01-02"), a.Metric, a.PctChange)
		recent = append(recent, a)
	}
	return recent
}

// DetectAll sweeps the given metrics (every numeric column when nil) in
// ungrouped mode. It returns the per-metric map plus the flat accumulator in
// sweep order; the accumulator feeds ranking and the rule engine.
func (d *Detector) DetectAll(metrics []dataset.Column) (map[string][]Anomaly, []Anomaly) {
	if metrics == nil {
		metrics = d.ds.NumericColumns()
	}
	byMetric := make(map[string][]Anomaly)
	var all []Anomaly
	for _, metric := range metrics {
		found := d.Detect(metric, "")
		if len(found) == 0 {
			continue
		}
		byMetric[string(metric)] = found
		all = append(all, found...)
	}
	d.logger.Debug("anomaly sweep complete",
		"metrics_checked", len(metrics),
		"anomalies", len(all),
	)
	return byMetric, all
}

// TopAnomalies ranks anomalies by z-score descending, optionally filtered to
// one severity first. The sort is stable so equal scores keep sweep order.
func TopAnomalies(anomalies []Anomaly, n int, severity Severity) []Anomaly {
	filtered := anomalies
	if severity != "" {
		filtered = nil
		for _, a := range anomalies {
			if a.Severity == severity {
				filtered = append(filtered, a)
			}
		}
	}
	ranked := make([]Anomaly, len(filtered))
	copy(ranked, filtered)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ZScore > ranked[j].ZScore })
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func filterSeverity(anomalies []Anomaly, s Severity) []Anomaly {
	var out []Anomaly
	for _, a := range anomalies {
		if a.Severity == s {
			out = append(out, a)
		}
	}
	return out
}

// metricGroups partitions anomalies by metric, preserving first-seen metric
// order so insight emission is deterministic.
func metricGroups(anomalies []Anomaly) (order []string, groups map[string][]Anomaly) {
	groups = make(map[string][]Anomaly)
	for _, a := range anomalies {
		if _, seen := groups[a.Metric]; !seen {
			order = append(order, a.Metric)
		}
		groups[a.Metric] = append(groups[a.Metric], a)
	}
	return order, groups
}

// AnomalyInsights derives descriptive findings from a detection accumulator.
// Categories with zero matching anomalies emit nothing.
func AnomalyInsights(anomalies []Anomaly) []Insight {
	var insights []Insight

	critical := filterSeverity(anomalies, SeverityCritical)
	warnings := filterSeverity(anomalies, SeverityWarning)

	if len(critical) > 0 {
		insights = append(insights, Insight{
			Type:  "critical_anomalies",
			Count: len(critical),
			Text:  fmt.Sprintf("CRITICAL: %d critical anomaly(ies) detected requiring immediate investigation", len(critical)),
		})
		top := TopAnomalies(critical, 1, "")[0]
		insights = append(insights, Insight{
			Type:   "top_critical_detail",
			Detail: top,
			Text:   "Most critical: " + top.Text,
		})
	}

	if len(warnings) > 0 {
		insights = append(insights, Insight{
			Type:  "warning_anomalies",
			Count: len(warnings),
			Text:  fmt.Sprintf("WARNING: %d warning-level anomaly(ies) detected", len(warnings)),
		})
	}

	order, groups := metricGroups(anomalies)
	for _, metric := range order {
		list := groups[metric]
		avg := 0.0
		for _, a := range list {
			avg += math.Abs(a.PctChange)
		}
		avg /= float64(len(list))
		insights = append(insights, Insight{
			Type:   "metric_" + metric,
			Metric: metric,
			Count:  len(list),
			Value:  avg,
			Text:   fmt.Sprintf("%s: %d anomaly(ies) detected (avg deviation: %.1f%%)", metric, len(list), avg),
		})
	}

	return insights
}

// AnomalyRecommendations derives prescriptive findings. The output is
// bounded: one urgent-investigation entry, one recurring-issue entry per
// affected metric, and at most three spike/drop entries.
func AnomalyRecommendations(anomalies []Anomaly) []Recommendation {
	var recs []Recommendation

	critical := filterSeverity(anomalies, SeverityCritical)
	if len(critical) > 0 {
		recs = append(recs, Recommendation{
			Type:     "urgent_investigation",
			Priority: PriorityCritical,
			Text: fmt.Sprintf("Urgent: investigate %d critical anomaly(ies). These represent extreme deviations from normal performance.",
				len(critical)),
		})
	}

	order, groups := metricGroups(anomalies)
	for _, metric := range order {
		if len(groups[metric]) > 2 {
			recs = append(recs, Recommendation{
				Type:     "recurring_anomaly_" + metric,
				Priority: PriorityHigh,
				Metric:   metric,
				Text: fmt.Sprintf("Recurring issue: %s has shown %d anomalies. Investigate the root cause systematically.",
					metric, len(groups[metric])),
			})
		}
	}

	limit := len(critical)
	if limit > 3 {
		limit = 3
	}
	for _, a := range critical[:limit] {
		if a.PctChange > 0 {
			recs = append(recs, Recommendation{
				Type:     "spike_investigation",
				Priority: PriorityHigh,
				Metric:   a.Metric,
				Detail:   a,
				Text:     fmt.Sprintf("Positive spike in %s: identify what drove the increase and replicate it.", a.Metric),
			})
		} else {
			recs = append(recs, Recommendation{
				Type:     "drop_investigation",
				Priority: PriorityCritical,
				Metric:   a.Metric,
				Detail:   a,
				Text:     fmt.Sprintf("Performance drop in %s: identify and fix the root cause immediately.", a.Metric),
			})
		}
	}

	return recs
}

// Summary runs the full sweep over the given metrics (all numeric columns
// when nil) and bundles counts, rankings and rule-engine output.
func (d *Detector) Summary(metrics []dataset.Column) *AnomalySummary {
	_, all := d.DetectAll(metrics)
	return &AnomalySummary{
		TotalAnomalies:  len(all),
		Critical:        len(filterSeverity(all, SeverityCritical)),
		Warning:         len(filterSeverity(all, SeverityWarning)),
		Info:            len(filterSeverity(all, SeverityInfo)),
		Anomalies:       all,
		TopAnomalies:    TopAnomalies(all, 5, ""),
		Insights:        AnomalyInsights(all),
		Recommendations: AnomalyRecommendations(all),
	}
}

func severityLabel(s Severity) string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}
