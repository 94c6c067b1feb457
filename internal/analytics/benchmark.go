package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"insightgen/internal/benchmarks"
)

// Default percentage cutoffs for promoting a comparison to a named strength
// or weakness.
const (
	DefaultStrengthCutoff = 10.0
	DefaultWeaknessCutoff = -10.0
)

// comparedMetrics are the ratios tested against benchmarks, in output order.
var comparedMetrics = []string{"ctr", "cpc", "cvr", "cpa", "roas"}

// costMetrics invert the better/worse mapping: a client value above the
// benchmark is worse, not better. This explicit set intentionally differs
// from the ranking heuristic in isCostOrdered.
var costMetrics = map[string]bool{"cpc": true, "cpa": true}

// Comparator measures client KPIs against the external benchmark table. A
// table that failed to load is a degraded state, not an error: every
// operation returns empty results and Summary reports BenchmarksLoaded
// false.
type Comparator struct {
	kpis           *KpiSummary
	table          benchmarks.Table
	strengthCutoff float64
	weaknessCutoff float64
	logger         *slog.Logger
}

// NewComparator creates a benchmark comparator. Zero cutoffs fall back to
// the defaults.
func NewComparator(kpis *KpiSummary, table benchmarks.Table, strengthCutoff, weaknessCutoff float64, logger *slog.Logger) *Comparator {
	if strengthCutoff <= 0 {
		strengthCutoff = DefaultStrengthCutoff
	}
	if weaknessCutoff >= 0 {
		weaknessCutoff = DefaultWeaknessCutoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Comparator{
		kpis:           kpis,
		table:          table,
		strengthCutoff: strengthCutoff,
		weaknessCutoff: weaknessCutoff,
		logger:         logger,
	}
}

// compare builds one comparison record. Difference is always client minus
// benchmark; pct_difference is 0 when the benchmark is 0.
func compare(metric string, client, bench float64, tier func(float64) Tier) BenchmarkComparison {
	diff := client - bench
	pct := 0.0
	if bench != 0 {
		pct = diff / bench * 100
	}

	status := StatusBelow
	if diff > 0 {
		status = StatusAbove
	}
	performance := PerformanceWorse
	if costMetrics[metric] {
		if diff <= 0 {
			performance = PerformanceBetter
		}
	} else if diff > 0 {
		performance = PerformanceBetter
	}

	return BenchmarkComparison{
		KpiName:        metric,
		ClientValue:    client,
		BenchmarkValue: bench,
		Difference:     diff,
		PctDifference:  pct,
		Status:         status,
		Performance:    performance,
		Tier:           tier(pct),
		Text: fmt.Sprintf("%s: %.2f vs benchmark %.2f (%+.1f%%)",
			strings.ToUpper(metric), client, bench, pct),
	}
}

// CompareOverall measures the whole-dataset ratios against the "overall"
// benchmark entry using the wide tier bands.
func (c *Comparator) CompareOverall() map[string]BenchmarkComparison {
	out := map[string]BenchmarkComparison{}
	entry, ok := c.table.Overall()
	if !ok {
		return out
	}
	for _, metric := range comparedMetrics {
		client, _ := c.kpis.Overall.Metric(metric)
		bench, _ := entry.Metric(metric)
		out[metric] = compare(metric, client, bench, OverallTier)
	}
	return out
}

// CompareByChannel measures each channel's ratios against its own benchmark
// entry, falling back to the overall entry when none exists. Channel
// comparisons use the tighter tier bands.
func (c *Comparator) CompareByChannel() map[string]map[string]BenchmarkComparison {
	out := map[string]map[string]BenchmarkComparison{}
	if !c.table.Loaded() {
		return out
	}
	for channel, kpi := range c.kpis.ByChannel {
		entry, ok := c.table.For(channel)
		if !ok {
			continue
		}
		comparison := map[string]BenchmarkComparison{}
		for _, metric := range comparedMetrics {
			client, _ := kpi.Metric(metric)
			bench, _ := entry.Metric(metric)
			comparison[metric] = compare(metric, client, bench, ChannelTier)
		}
		out[channel] = comparison
	}
	return out
}

// Strengths lists overall comparisons above the strength cutoff, sorted by
// surplus descending. Ties keep metric order.
func (c *Comparator) Strengths() []StrengthWeakness {
	overall := c.CompareOverall()
	var strengths []StrengthWeakness
	for _, metric := range comparedMetrics {
		data, ok := overall[metric]
		if !ok || data.PctDifference <= c.strengthCutoff {
			continue
		}
		strengths = append(strengths, StrengthWeakness{
			Metric:         metric,
			ClientValue:    data.ClientValue,
			BenchmarkValue: data.BenchmarkValue,
			Pct:            data.PctDifference,
			Tier:           data.Tier,
			Text:           fmt.Sprintf("%s strength: %.1f%% above benchmark", strings.ToUpper(metric), data.PctDifference),
		})
	}
	sort.SliceStable(strengths, func(i, j int) bool { return strengths[i].Pct > strengths[j].Pct })
	return strengths
}

// Weaknesses lists overall comparisons below the weakness cutoff, sorted by
// gap magnitude descending. Pct carries the absolute magnitude.
func (c *Comparator) Weaknesses() []StrengthWeakness {
	overall := c.CompareOverall()
	var weaknesses []StrengthWeakness
	for _, metric := range comparedMetrics {
		data, ok := overall[metric]
		if !ok || data.PctDifference >= c.weaknessCutoff {
			continue
		}
		weaknesses = append(weaknesses, StrengthWeakness{
			Metric:         metric,
			ClientValue:    data.ClientValue,
			BenchmarkValue: data.BenchmarkValue,
			Pct:            math.Abs(data.PctDifference),
			Tier:           data.Tier,
			Text:           fmt.Sprintf("%s weakness: %.1f%% below benchmark", strings.ToUpper(metric), math.Abs(data.PctDifference)),
		})
	}
	sort.SliceStable(weaknesses, func(i, j int) bool { return weaknesses[i].Pct > weaknesses[j].Pct })
	return weaknesses
}

// PercentileRank describes one metric's approximate industry standing.
func (c *Comparator) PercentileRank(metric string) string {
	data, ok := c.CompareOverall()[metric]
	if !ok {
		return "Unknown"
	}
	pct := data.PctDifference
	switch {
	case pct > 30:
		return "Top 5%"
	case pct > 20:
		return "Top 10%"
	case pct > 10:
		return "Top 25%"
	case pct > 0:
		return "Top 50%"
	case pct > -10:
		return "Bottom 50%"
	case pct > -20:
		return "Bottom 25%"
	case pct > -30:
		return "Bottom 10%"
	default:
		return "Bottom 5%"
	}
}

func countTier(comparison map[string]BenchmarkComparison, tier Tier) int {
	n := 0
	for _, data := range comparison {
		if data.Tier == tier {
			n++
		}
	}
	return n
}

func topMetricNames(list []StrengthWeakness, n int) string {
	if len(list) > n {
		list = list[:n]
	}
	names := make([]string, len(list))
	for i, item := range list {
		names[i] = strings.ToUpper(item.Metric)
	}
	return strings.Join(names, ", ")
}

// Insights derives descriptive findings: tier counts at the extremes and the
// top-2 strength and weakness metric names. Empty categories emit nothing.
func (c *Comparator) Insights() []Insight {
	overall := c.CompareOverall()
	var insights []Insight

	if top20 := countTier(overall, TierTop20); top20 > 0 {
		insights = append(insights, Insight{
			Type:  "strong_performance",
			Count: top20,
			Text:  fmt.Sprintf("Strong performance: %d metric(s) in top 20%% vs industry benchmarks", top20),
		})
	}
	if bottom20 := countTier(overall, TierBottom20); bottom20 > 0 {
		insights = append(insights, Insight{
			Type:  "weak_performance",
			Count: bottom20,
			Text:  fmt.Sprintf("Areas of concern: %d metric(s) in bottom 20%% vs industry benchmarks", bottom20),
		})
	}

	if strengths := c.Strengths(); len(strengths) > 0 {
		insights = append(insights, Insight{
			Type:  "key_strengths",
			Count: len(strengths),
			Text:  fmt.Sprintf("Key strengths: %s significantly outperform benchmarks", topMetricNames(strengths, 2)),
		})
	}
	if weaknesses := c.Weaknesses(); len(weaknesses) > 0 {
		insights = append(insights, Insight{
			Type:  "key_weaknesses",
			Count: len(weaknesses),
			Text:  fmt.Sprintf("Improvement areas: %s underperform benchmarks, prioritize optimization", topMetricNames(weaknesses, 2)),
		})
	}

	return insights
}

// Recommendations derives prescriptive findings: a playbook remediation for
// each of the top-3 weaknesses (metrics outside the playbook are skipped)
// and one scale-the-winner entry for the single strongest strength.
func (c *Comparator) Recommendations() []Recommendation {
	var recs []Recommendation

	weaknesses := c.Weaknesses()
	if len(weaknesses) > 3 {
		weaknesses = weaknesses[:3]
	}
	for _, weakness := range weaknesses {
		tmpl, ok := weaknessPlaybook[weakness.Metric]
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{
			Type:     tmpl.recType,
			Priority: tmpl.priority,
			Metric:   weakness.Metric,
			Text:     fmt.Sprintf(tmpl.text, weakness.Pct),
		})
	}

	if strengths := c.Strengths(); len(strengths) > 0 {
		best := strengths[0]
		recs = append(recs, Recommendation{
			Type:     "scale_success",
			Priority: PriorityMedium,
			Metric:   best.Metric,
			Text: fmt.Sprintf("Scale winner: %s is %.1f%% above benchmark. Increase budget allocation to this channel/campaign.",
				strings.ToUpper(best.Metric), best.Pct),
		})
	}

	return recs
}

// Summary runs the full benchmark analysis. A not-loaded table yields empty
// results with BenchmarksLoaded false.
func (c *Comparator) Summary() *BenchmarkSummary {
	s := &BenchmarkSummary{
		OverallComparison:   map[string]BenchmarkComparison{},
		ByChannelComparison: map[string]map[string]BenchmarkComparison{},
		BenchmarksLoaded:    c.table.Loaded(),
	}
	if !s.BenchmarksLoaded {
		c.logger.Debug("benchmark analysis skipped", "reason", "benchmarks not loaded")
		return s
	}
	s.OverallComparison = c.CompareOverall()
	s.ByChannelComparison = c.CompareByChannel()
	s.Strengths = c.Strengths()
	s.Weaknesses = c.Weaknesses()
	s.Insights = c.Insights()
	s.Recommendations = c.Recommendations()
	c.logger.Debug("benchmark analysis complete",
		"channels", len(s.ByChannelComparison),
		"strengths", len(s.Strengths),
		"weaknesses", len(s.Weaknesses),
	)
	return s
}
