package analytics

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"insightgen/internal/dataset"
)

// Aggregator computes ratio-based efficiency metrics at every granularity.
// It is a pure computation over its dataset: no state survives a call and
// the caller's dataset is never mutated.
type Aggregator struct {
	ds     *dataset.Dataset
	logger *slog.Logger
}

// NewAggregator creates a KPI aggregator over the dataset.
func NewAggregator(ds *dataset.Dataset, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{ds: ds, logger: logger}
}

// deriveRates fills the five ratios from summed counters. Every ratio is
// exactly 0 when its denominator is 0.
func deriveRates(k *KpiRecord) {
	if k.Impressions > 0 {
		k.CTR = k.Clicks / k.Impressions * 100
	}
	if k.Clicks > 0 {
		k.CPC = k.Spend / k.Clicks
		k.CVR = k.Conversions / k.Clicks * 100
	}
	if k.Conversions > 0 {
		k.CPA = k.Spend / k.Conversions
	}
	if k.Spend > 0 {
		k.ROAS = k.Revenue / k.Spend
	}
}

// sumRows sums a column over a row subset, excluding missing values from the
// total (missing means absent, not zero).
func sumRows(rows []dataset.Observation, col dataset.Column) float64 {
	total := 0.0
	for _, row := range rows {
		if v := row.Value(col); !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

func sumCounters(rows []dataset.Observation) KpiRecord {
	k := KpiRecord{
		Impressions: sumRows(rows, dataset.ColImpressions),
		Clicks:      sumRows(rows, dataset.ColClicks),
		Conversions: sumRows(rows, dataset.ColConversions),
		Spend:       sumRows(rows, dataset.ColSpend),
		Revenue:     sumRows(rows, dataset.ColRevenue),
	}
	deriveRates(&k)
	return k
}

// Overall computes the whole-dataset aggregate.
func (a *Aggregator) Overall() OverallKpis {
	k := sumCounters(a.ds.Rows)
	o := OverallKpis{
		TotalImpressions: k.Impressions,
		TotalClicks:      k.Clicks,
		TotalConversions: k.Conversions,
		TotalSpend:       k.Spend,
		TotalRevenue:     k.Revenue,
		TotalVisits:      sumRows(a.ds.Rows, dataset.ColVisits),
		CTR:              k.CTR,
		CPC:              k.CPC,
		CVR:              k.CVR,
		CPA:              k.CPA,
		ROAS:             k.ROAS,
	}
	if n := float64(a.ds.Len()); n > 0 {
		o.AvgDailyImpressions = o.TotalImpressions / n
		o.AvgDailyClicks = o.TotalClicks / n
		o.AvgDailyConversions = o.TotalConversions / n
	}
	return o
}

// groupRows partitions rows by a categorical column, preserving first-seen
// group order. Ties in later rankings fall back to this input order.
func (a *Aggregator) groupRows(col dataset.Column) (order []string, groups map[string][]dataset.Observation) {
	groups = make(map[string][]dataset.Observation)
	for _, row := range a.ds.Rows {
		label := row.Label(col)
		if _, seen := groups[label]; !seen {
			order = append(order, label)
		}
		groups[label] = append(groups[label], row)
	}
	return order, groups
}

func (a *Aggregator) groupKpis(col dataset.Column) ([]GroupKpi, map[string]GroupKpi) {
	if !a.ds.HasColumn(col) {
		return nil, map[string]GroupKpi{}
	}
	order, groups := a.groupRows(col)
	list := make([]GroupKpi, 0, len(order))
	byName := make(map[string]GroupKpi, len(order))
	for _, label := range order {
		g := GroupKpi{Group: label, KpiRecord: sumCounters(groups[label])}
		list = append(list, g)
		byName[label] = g
	}
	return list, byName
}

// ByChannel aggregates per channel; empty when the column is absent.
func (a *Aggregator) ByChannel() map[string]GroupKpi {
	_, byName := a.groupKpis(dataset.ColChannel)
	return byName
}

// ByCampaign aggregates per campaign; empty when the column is absent.
func (a *Aggregator) ByCampaign() map[string]GroupKpi {
	_, byName := a.groupKpis(dataset.ColCampaign)
	return byName
}

// ByCity aggregates per city. Cities are judged on visit efficiency.
func (a *Aggregator) ByCity() map[string]CityKpi {
	out := map[string]CityKpi{}
	if !a.ds.HasColumn(dataset.ColCity) {
		return out
	}
	order, groups := a.groupRows(dataset.ColCity)
	for _, city := range order {
		rows := groups[city]
		k := CityKpi{
			City:        city,
			Visits:      sumRows(rows, dataset.ColVisits),
			Conversions: sumRows(rows, dataset.ColConversions),
			Spend:       sumRows(rows, dataset.ColSpend),
			Revenue:     sumRows(rows, dataset.ColRevenue),
		}
		if k.Visits > 0 {
			k.ConversionRate = k.Conversions / k.Visits * 100
			k.RevenuePerVisit = k.Revenue / k.Visits
		}
		if k.Spend > 0 {
			k.ROAS = k.Revenue / k.Spend
		}
		out[city] = k
	}
	return out
}

var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// ByDayOfWeek aggregates per weekday; only days present in data appear.
func (a *Aggregator) ByDayOfWeek() map[string]DayKpi {
	out := map[string]DayKpi{}
	if !a.ds.HasColumn(dataset.ColDate) {
		return out
	}
	byDay := make(map[string][]dataset.Observation)
	for _, row := range a.ds.Rows {
		if row.Date.IsZero() {
			continue
		}
		byDay[row.Date.Weekday().String()] = append(byDay[row.Date.Weekday().String()], row)
	}
	for _, day := range weekdayNames {
		rows := byDay[day]
		if len(rows) == 0 {
			continue
		}
		k := sumCounters(rows)
		out[day] = DayKpi{
			Day:         day,
			Impressions: k.Impressions,
			Clicks:      k.Clicks,
			Conversions: k.Conversions,
			Spend:       k.Spend,
			Revenue:     k.Revenue,
			CTR:         k.CTR,
			CPA:         k.CPA,
			ROAS:        k.ROAS,
			AvgSpend:    k.Spend / float64(len(rows)),
		}
	}
	return out
}

// ByDate computes the daily trend series, sorted ascending by date. Rows
// without a parseable date are excluded from the series.
func (a *Aggregator) ByDate() []DateKpi {
	if !a.ds.HasColumn(dataset.ColDate) {
		return nil
	}
	byDate := make(map[time.Time][]dataset.Observation)
	var order []time.Time
	for _, row := range a.ds.Rows {
		if row.Date.IsZero() {
			continue
		}
		day := row.Date.Truncate(24 * time.Hour)
		if _, seen := byDate[day]; !seen {
			order = append(order, day)
		}
		byDate[day] = append(byDate[day], row)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	series := make([]DateKpi, 0, len(order))
	for _, day := range order {
		series = append(series, DateKpi{Date: day, KpiRecord: sumCounters(byDate[day])})
	}
	return series
}

// isCostOrdered reports whether ranking by this metric treats smaller values
// as better. The name-prefix heuristic is preserved from the reference
// behavior on purpose: it also catches ctr and cvr, and downstream consumers
// depend on that ordering. The comparator's better/worse inversion uses the
// explicit {cpc, cpa} set instead; the two classifications intentionally
// differ.
func isCostOrdered(metric string) bool {
	return strings.HasPrefix(metric, "c")
}

// rankCampaigns returns campaigns ordered best-first (or worst-first) by the
// metric. The sort is stable, so ties keep input order.
func (a *Aggregator) rankCampaigns(metric string, worst bool) []GroupKpi {
	list, _ := a.groupKpis(dataset.ColCampaign)
	if len(list) == 0 {
		return nil
	}
	ranked := make([]GroupKpi, len(list))
	copy(ranked, list)

	ascending := isCostOrdered(metric)
	if worst {
		ascending = !ascending
	}
	value := func(g GroupKpi) float64 {
		v, ok := g.Metric(metric)
		if !ok {
			if ascending {
				return math.Inf(1)
			}
			return 0
		}
		return v
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ascending {
			return value(ranked[i]) < value(ranked[j])
		}
		return value(ranked[i]) > value(ranked[j])
	})
	return ranked
}

// TopPerformers returns the best n campaigns by the metric. Cost-ordered
// metrics rank ascending; all others descending.
func (a *Aggregator) TopPerformers(metric string, n int) []GroupKpi {
	return truncateGroups(a.rankCampaigns(metric, false), n)
}

// WorstPerformers returns the bottom n campaigns by the metric.
func (a *Aggregator) WorstPerformers(metric string, n int) []GroupKpi {
	return truncateGroups(a.rankCampaigns(metric, true), n)
}

func truncateGroups(list []GroupKpi, n int) []GroupKpi {
	if n < 0 {
		n = 0
	}
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// Summary runs every aggregation and bundles the results.
func (a *Aggregator) Summary() *KpiSummary {
	s := &KpiSummary{
		Overall:        a.Overall(),
		ByChannel:      a.ByChannel(),
		ByCampaign:     a.ByCampaign(),
		ByCity:         a.ByCity(),
		ByDayOfWeek:    a.ByDayOfWeek(),
		TopCampaigns:   a.TopPerformers("roas", 5),
		WorstCampaigns: a.WorstPerformers("roas", 5),
		DailyTrend:     a.ByDate(),
	}
	a.logger.Debug("kpi aggregation complete",
		"channels", len(s.ByChannel),
		"campaigns", len(s.ByCampaign),
		"cities", len(s.ByCity),
		"trend_points", len(s.DailyTrend),
	)
	return s
}
