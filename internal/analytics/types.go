package analytics

import (
	"time"
)

// Severity classifies how unusual a flagged value is. Monotonic in z-score.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityForZ maps a z-score to a severity level. The bands are exclusive
// and evaluated high to low; callers only invoke this for values that already
// exceeded the detection threshold.
//
//	z > 3.0 critical
//	z > 2.5 warning
//	otherwise info
func SeverityForZ(z float64) Severity {
	switch {
	case z > 3.0:
		return SeverityCritical
	case z > 2.5:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Tier is the discrete performance bucket assigned by percentage deviation
// from a benchmark.
type Tier string

const (
	TierInLine   Tier = "in_line"
	TierTop20    Tier = "top_20"
	TierTop40    Tier = "top_40"
	TierAverage  Tier = "average"
	TierBottom40 Tier = "bottom_40"
	TierBottom20 Tier = "bottom_20"
)

// OverallTier buckets a percentage difference at the overall granularity.
func OverallTier(pct float64) Tier {
	switch {
	case pct < 5 && pct > -5:
		return TierInLine
	case pct > 20:
		return TierTop20
	case pct > 10:
		return TierTop40
	case pct < -20:
		return TierBottom20
	case pct < -10:
		return TierBottom40
	default:
		return TierAverage
	}
}

// ChannelTier buckets a percentage difference at the channel granularity.
// The bands are deliberately tighter than OverallTier: channel benchmarks
// tolerate less deviation before a result counts as an outlier.
func ChannelTier(pct float64) Tier {
	switch {
	case pct < 5 && pct > -5:
		return TierInLine
	case pct > 15:
		return TierTop20
	case pct > 5:
		return TierTop40
	case pct < -15:
		return TierBottom20
	case pct < -5:
		return TierBottom40
	default:
		return TierAverage
	}
}

// Status reports which side of the benchmark the client value falls on.
type Status string

const (
	StatusAbove Status = "above"
	StatusBelow Status = "below"
)

// Performance reports whether the deviation is good or bad for the client;
// the mapping inverts for cost metrics.
type Performance string

const (
	PerformanceBetter Performance = "better"
	PerformanceWorse  Performance = "worse"
)

// KpiRecord carries the summed counters of one group plus the five derived
// efficiency ratios. Every ratio is exactly 0, never NaN, when its
// denominator sum is 0; downstream consumers must not mistake that for a
// true zero measured from activity.
type KpiRecord struct {
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Conversions float64 `json:"conversions"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`

	CTR  float64 `json:"ctr"`  // clicks/impressions*100
	CPC  float64 `json:"cpc"`  // spend/clicks
	CVR  float64 `json:"cvr"`  // conversions/clicks*100
	CPA  float64 `json:"cpa"`  // spend/conversions
	ROAS float64 `json:"roas"` // revenue/spend
}

// Metric returns a ratio or counter by its wire name.
func (k KpiRecord) Metric(name string) (float64, bool) {
	switch name {
	case "impressions":
		return k.Impressions, true
	case "clicks":
		return k.Clicks, true
	case "conversions":
		return k.Conversions, true
	case "spend":
		return k.Spend, true
	case "revenue":
		return k.Revenue, true
	case "ctr":
		return k.CTR, true
	case "cpc":
		return k.CPC, true
	case "cvr":
		return k.CVR, true
	case "cpa":
		return k.CPA, true
	case "roas":
		return k.ROAS, true
	default:
		return 0, false
	}
}

// OverallKpis is the whole-dataset aggregate.
type OverallKpis struct {
	TotalImpressions float64 `json:"total_impressions"`
	TotalClicks      float64 `json:"total_clicks"`
	TotalConversions float64 `json:"total_conversions"`
	TotalSpend       float64 `json:"total_spend"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalVisits      float64 `json:"total_visits"`

	CTR  float64 `json:"ctr"`
	CPC  float64 `json:"cpc"`
	CVR  float64 `json:"cvr"`
	CPA  float64 `json:"cpa"`
	ROAS float64 `json:"roas"`

	AvgDailyImpressions float64 `json:"avg_daily_impressions"`
	AvgDailyClicks      float64 `json:"avg_daily_clicks"`
	AvgDailyConversions float64 `json:"avg_daily_conversions"`
}

// Metric returns a ratio by its wire name (comparator lookup).
func (o OverallKpis) Metric(name string) (float64, bool) {
	switch name {
	case "ctr":
		return o.CTR, true
	case "cpc":
		return o.CPC, true
	case "cvr":
		return o.CVR, true
	case "cpa":
		return o.CPA, true
	case "roas":
		return o.ROAS, true
	default:
		return 0, false
	}
}

// GroupKpi is a per-channel or per-campaign aggregate.
type GroupKpi struct {
	Group string `json:"group"`
	KpiRecord
}

// CityKpi is the per-city aggregate; cities are judged on visit efficiency
// rather than impression efficiency.
type CityKpi struct {
	City            string  `json:"city"`
	Visits          float64 `json:"visits"`
	Conversions     float64 `json:"conversions"`
	Spend           float64 `json:"spend"`
	Revenue         float64 `json:"revenue"`
	ConversionRate  float64 `json:"conversion_rate"`   // conversions/visits*100
	RevenuePerVisit float64 `json:"revenue_per_visit"` // revenue/visits
	ROAS            float64 `json:"roas"`
}

// DayKpi is the day-of-week aggregate.
type DayKpi struct {
	Day         string  `json:"day"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Conversions float64 `json:"conversions"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	CTR         float64 `json:"ctr"`
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
	AvgSpend    float64 `json:"avg_spend"`
}

// DateKpi is one point of the daily trend series.
type DateKpi struct {
	Date time.Time `json:"date"`
	KpiRecord
}

// KpiSummary is the aggregator's full output, handed unmodified to the
// renderer and to the benchmark comparator. Field names are a de facto
// contract; do not rename.
type KpiSummary struct {
	Overall        OverallKpis         `json:"overall"`
	ByChannel      map[string]GroupKpi `json:"by_channel"`
	ByCampaign     map[string]GroupKpi `json:"by_campaign"`
	ByCity         map[string]CityKpi  `json:"by_city"`
	ByDayOfWeek    map[string]DayKpi   `json:"by_day_of_week"`
	TopCampaigns   []GroupKpi          `json:"top_campaigns"`
	WorstCampaigns []GroupKpi          `json:"worst_campaigns"`
	DailyTrend     []DateKpi           `json:"daily_trend"`
}

// Anomaly is one statistically unusual observation. The baseline fields
// describe the population the value was tested against (whole dataset or one
// group); that population is part of the anomaly's identity and is preserved
// for audit via Group/GroupCol.
type Anomaly struct {
	Date         time.Time `json:"date"`
	Metric       string    `json:"metric"`
	Value        float64   `json:"value"`
	ZScore       float64   `json:"z_score"`
	Severity     Severity  `json:"severity"`
	PctChange    float64   `json:"pct_change_from_baseline"`
	BaselineMean float64   `json:"baseline_mean"`
	Group        string    `json:"group,omitempty"`
	GroupCol     string    `json:"group_col,omitempty"`
	Text         string    `json:"text"`
}

// AnomalySummary is the detector's full output.
type AnomalySummary struct {
	TotalAnomalies  int              `json:"total_anomalies"`
	Critical        int              `json:"critical"`
	Warning         int              `json:"warning"`
	Info            int              `json:"info"`
	Anomalies       []Anomaly        `json:"anomalies"`
	TopAnomalies    []Anomaly        `json:"top_anomalies"`
	Insights        []Insight        `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
}

// CorrelationResult is one weather-variable x performance-metric pairing.
// Pairs with fewer than three jointly valid observations are never emitted.
type CorrelationResult struct {
	PerformanceMetric string  `json:"performance_metric"`
	WeatherVariable   string  `json:"weather_variable"`
	Correlation       float64 `json:"correlation"`
	PValue            float64 `json:"p_value"`
	Significant       bool    `json:"significant"` // p < 0.05
}

// RainyMetric compares one metric's mean on rainy vs non-rainy days.
type RainyMetric struct {
	RainyAvg       float64 `json:"rainy_avg"`
	NonRainyAvg    float64 `json:"non_rainy_avg"`
	PctChange      float64 `json:"pct_change"`
	Interpretation string  `json:"interpretation"` // "increase" or "decrease"
}

// RainyDayAnalysis splits performance at rainfall > 1.0mm.
type RainyDayAnalysis struct {
	RainyDaysCount    int                    `json:"rainy_days_count"`
	NonRainyDaysCount int                    `json:"non_rainy_days_count"`
	Metrics           map[string]RainyMetric `json:"metrics"`
}

// BandMetric summarizes one metric within a temperature band.
type BandMetric struct {
	Avg   float64 `json:"avg"`
	Total float64 `json:"total"`
	Max   float64 `json:"max"`
	Min   float64 `json:"min"`
}

// BandAnalysis summarizes one temperature band; bands with zero matching
// rows are omitted from output entirely.
type BandAnalysis struct {
	Count   int                   `json:"count"`
	Metrics map[string]BandMetric `json:"metrics"`
}

// CorrelationStat is a scoped correlation value used in per-channel impact.
type CorrelationStat struct {
	Value       float64 `json:"value"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// ChannelWeatherImpact holds both weather correlations for one channel.
type ChannelWeatherImpact struct {
	Temperature CorrelationStat `json:"temperature_correlation"`
	Rainfall    CorrelationStat `json:"rainfall_correlation"`
}

// WeatherSummary is the correlator's full output. DataAvailable false is a
// reportable condition, not an error: every other field is empty.
type WeatherSummary struct {
	DataAvailable      bool                            `json:"data_available"`
	Correlations       []CorrelationResult             `json:"correlations"`
	StrongCorrelations []CorrelationResult             `json:"strong_correlations"`
	RainyDayAnalysis   RainyDayAnalysis                `json:"rainy_day_analysis"`
	TemperatureRanges  map[string]BandAnalysis         `json:"temperature_range_analysis"`
	ByChannelImpact    map[string]ChannelWeatherImpact `json:"by_channel_impact"`
	Insights           []Insight                       `json:"insights"`
	Recommendations    []Recommendation                `json:"recommendations"`
}

// BenchmarkComparison is one metric's standing against its benchmark.
type BenchmarkComparison struct {
	KpiName        string      `json:"kpi_name"`
	ClientValue    float64     `json:"client_value"`
	BenchmarkValue float64     `json:"benchmark_value"`
	Difference     float64     `json:"difference"`
	PctDifference  float64     `json:"pct_difference"`
	Status         Status      `json:"status"`
	Performance    Performance `json:"performance"`
	Tier           Tier        `json:"tier"`
	Text           string      `json:"text"`
}

// StrengthWeakness is a benchmark comparison promoted to a named strength or
// weakness. Pct is always the absolute magnitude for weaknesses and the
// signed surplus for strengths.
type StrengthWeakness struct {
	Metric         string  `json:"metric"`
	ClientValue    float64 `json:"client_value"`
	BenchmarkValue float64 `json:"benchmark_value"`
	Pct            float64 `json:"pct"`
	Tier           Tier    `json:"tier"`
	Text           string  `json:"text"`
}

// BenchmarkSummary is the comparator's full output. BenchmarksLoaded false
// means the external benchmark table was absent or malformed; the run still
// completes with every other field empty.
type BenchmarkSummary struct {
	OverallComparison   map[string]BenchmarkComparison            `json:"overall_comparison"`
	ByChannelComparison map[string]map[string]BenchmarkComparison `json:"by_channel_comparison"`
	Strengths           []StrengthWeakness                        `json:"strengths"`
	Weaknesses          []StrengthWeakness                        `json:"weaknesses"`
	Insights            []Insight                                 `json:"insights"`
	Recommendations     []Recommendation                          `json:"recommendations"`
	BenchmarksLoaded    bool                                      `json:"benchmarks_loaded"`
}

// Insight is a descriptive finding. The structured fields are authoritative;
// Text is a deterministic rendering of the same payload for convenience.
type Insight struct {
	Type    string      `json:"type"`
	Metric  string      `json:"metric,omitempty"`
	Weather string      `json:"weather_factor,omitempty"`
	Count   int         `json:"count,omitempty"`
	Value   float64     `json:"value,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
	Text    string      `json:"text"`
}

// Recommendation is a prescriptive finding with a priority. Counts and
// ordering of recommendations are part of the contract: callers rely on the
// truncation rules (top 3, single strongest, ...) being stable.
type Recommendation struct {
	Type            string      `json:"type"`
	Priority        Priority    `json:"priority"`
	Metric          string      `json:"metric,omitempty"`
	EstimatedImpact string      `json:"estimated_impact,omitempty"`
	Detail          interface{} `json:"detail,omitempty"`
	Text            string      `json:"text"`
}

// RunSummary bundles every analyzer's output for one analysis run.
type RunSummary struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	ClientName  string            `json:"client_name"`
	KPIs        *KpiSummary       `json:"kpis"`
	Weather     *WeatherSummary   `json:"weather"`
	Anomalies   *AnomalySummary   `json:"anomalies"`
	Benchmarks  *BenchmarkSummary `json:"benchmarks"`
}
