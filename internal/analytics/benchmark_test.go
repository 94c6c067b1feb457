package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightgen/internal/benchmarks"
)

func benchmarkTable() benchmarks.Table {
	return benchmarks.Table{
		"overall": {AvgCTR: 2.0, AvgCPC: 1.0, AvgConversionRate: 4.0, AvgCPA: 20.0, AvgROAS: 3.0},
		"email":   {AvgCTR: 3.0, AvgCPC: 0.5, AvgConversionRate: 5.0, AvgCPA: 15.0, AvgROAS: 4.0},
	}
}

func kpisForBenchmarks() *KpiSummary {
	return &KpiSummary{
		Overall: OverallKpis{CTR: 2.24, CPC: 1.3, CVR: 4.0, CPA: 14.0, ROAS: 3.9},
		ByChannel: map[string]GroupKpi{
			"email": {Group: "email", KpiRecord: KpiRecord{CTR: 3.36, CPC: 0.5, CVR: 5.0, CPA: 15.0, ROAS: 4.0}},
			"print": {Group: "print", KpiRecord: KpiRecord{CTR: 2.0, CPC: 1.0, CVR: 4.0, CPA: 20.0, ROAS: 3.0}},
		},
	}
}

func TestCompareOverall(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)
	overall := c.CompareOverall()
	require.Len(t, overall, 5)

	t.Run("twelve percent above lands in top_40", func(t *testing.T) {
		ctr := overall["ctr"]
		assert.InDelta(t, 12.0, ctr.PctDifference, 1e-9)
		assert.Equal(t, TierTop40, ctr.Tier)
		assert.Equal(t, StatusAbove, ctr.Status)
		assert.Equal(t, PerformanceBetter, ctr.Performance)
	})

	t.Run("cost metric inversion", func(t *testing.T) {
		cpc := overall["cpc"]
		assert.Equal(t, StatusAbove, cpc.Status)
		assert.Equal(t, PerformanceWorse, cpc.Performance)

		cpa := overall["cpa"]
		assert.Equal(t, StatusBelow, cpa.Status)
		assert.Equal(t, PerformanceBetter, cpa.Performance)
	})

	t.Run("return metric above is better", func(t *testing.T) {
		roas := overall["roas"]
		assert.Equal(t, StatusAbove, roas.Status)
		assert.Equal(t, PerformanceBetter, roas.Performance)
		assert.InDelta(t, 30.0, roas.PctDifference, 1e-9)
		assert.Equal(t, TierTop20, roas.Tier)
	})

	t.Run("zero benchmark yields zero pct difference", func(t *testing.T) {
		table := benchmarks.Table{"overall": {}}
		comp := NewComparator(kpisForBenchmarks(), table, 0, 0, nil).CompareOverall()
		assert.Equal(t, 0.0, comp["ctr"].PctDifference)
	})
}

func TestCompareByChannel(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)
	byChannel := c.CompareByChannel()
	require.Len(t, byChannel, 2)

	t.Run("channel ladder applies", func(t *testing.T) {
		// 12% clears the channel ladder's >5 band but not its >15 band.
		ctr := byChannel["email"]["ctr"]
		assert.InDelta(t, 12.0, ctr.PctDifference, 1e-9)
		assert.Equal(t, TierTop40, ctr.Tier)
	})

	t.Run("unknown channel falls back to overall entry", func(t *testing.T) {
		ctr := byChannel["print"]["ctr"]
		assert.Equal(t, 2.0, ctr.BenchmarkValue)
		assert.Equal(t, TierInLine, ctr.Tier)
	})
}

func TestStrengthsWeaknesses(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)

	t.Run("strengths sorted by surplus descending", func(t *testing.T) {
		strengths := c.Strengths()
		// ctr +12%, roas +30% clear the +10 cutoff; cvr 0% and the cost
		// metrics' raw pcts (cpc +30, cpa -30) count by sign, so cpc joins.
		require.Len(t, strengths, 3)
		assert.Equal(t, "cpc", strengths[0].Metric)
		assert.Equal(t, "roas", strengths[1].Metric)
		assert.Equal(t, "ctr", strengths[2].Metric)
	})

	t.Run("weaknesses carry magnitude", func(t *testing.T) {
		weaknesses := c.Weaknesses()
		require.Len(t, weaknesses, 1)
		assert.Equal(t, "cpa", weaknesses[0].Metric)
		assert.InDelta(t, 30.0, weaknesses[0].Pct, 1e-9)
	})
}

func TestPercentileRank(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)
	assert.Equal(t, "Top 25%", c.PercentileRank("ctr"))
	assert.Equal(t, "Top 10%", c.PercentileRank("roas"))
	assert.Equal(t, "Bottom 5%", c.PercentileRank("cpa"))
	assert.Equal(t, "Unknown", c.PercentileRank("bogus"))
}

func TestBenchmarkInsights(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)
	insights := c.Insights()

	byType := map[string]Insight{}
	for _, ins := range insights {
		byType[ins.Type] = ins
	}
	require.Contains(t, byType, "strong_performance")
	require.Contains(t, byType, "key_strengths")
	require.Contains(t, byType, "key_weaknesses")
	assert.Contains(t, byType["key_strengths"].Text, "CPC, ROAS")
	assert.Contains(t, byType["key_weaknesses"].Text, "CPA")
}

func TestBenchmarkRecommendations(t *testing.T) {
	t.Run("weakness playbook and scale winner", func(t *testing.T) {
		c := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil)
		recs := c.Recommendations()

		var types []string
		for _, rec := range recs {
			types = append(types, rec.Type)
		}
		// cpa is the only weakness and has no playbook entry, so the only
		// output is the scale-the-winner entry.
		assert.Equal(t, []string{"scale_success"}, types)
		assert.Equal(t, PriorityMedium, recs[0].Priority)
		assert.Equal(t, "cpc", recs[0].Metric)
	})

	t.Run("playbook remediation per weakness capped at three", func(t *testing.T) {
		kpis := &KpiSummary{
			Overall:   OverallKpis{CTR: 1.0, CPC: 1.0, CVR: 2.0, CPA: 20.0, ROAS: 1.5},
			ByChannel: map[string]GroupKpi{},
		}
		// ctr -50%, cvr -50%, roas -50%, cpa in line, cpc in line.
		c := NewComparator(kpis, benchmarkTable(), 0, 0, nil)
		recs := c.Recommendations()

		var playbook int
		for _, rec := range recs {
			switch rec.Type {
			case "improve_ctr", "improve_cvr", "improve_roas", "reduce_cpc":
				playbook++
				assert.Equal(t, PriorityHigh, rec.Priority)
			}
		}
		assert.Equal(t, 3, playbook)
	})
}

func TestBenchmarkSummaryDegraded(t *testing.T) {
	c := NewComparator(kpisForBenchmarks(), benchmarks.Table{}, 0, 0, nil)
	s := c.Summary()
	assert.False(t, s.BenchmarksLoaded)
	assert.Empty(t, s.OverallComparison)
	assert.Empty(t, s.Strengths)
	assert.Empty(t, s.Recommendations)
}

func TestBenchmarkSummaryIdempotent(t *testing.T) {
	first := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil).Summary()
	second := NewComparator(kpisForBenchmarks(), benchmarkTable(), 0, 0, nil).Summary()
	assert.Equal(t, first, second)
	assert.True(t, first.BenchmarksLoaded)
}
