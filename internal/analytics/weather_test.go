package analytics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weatherFixture has conversions tracking temperature exactly (r=1) and
// ignoring rainfall noise.
const weatherFixture = `date,channel,conversions,revenue,temperature_c,rainfall_mm
2024-03-01,email,10,100,10,0
2024-03-02,email,12,120,12,3
2024-03-03,email,14,140,14,0
2024-03-04,email,16,160,16,2
2024-03-05,email,18,180,18,0
`

func TestCorrelatorAvailability(t *testing.T) {
	t.Run("requires both weather columns", func(t *testing.T) {
		ds := mustDataset(t, "date,conversions,temperature_c\n2024-03-01,10,15\n2024-03-02,12,16\n")
		c := NewCorrelator(ds, 0, nil)
		assert.False(t, c.Available())

		s := c.Summary()
		assert.False(t, s.DataAvailable)
		assert.Empty(t, s.Correlations)
		assert.Empty(t, s.Insights)
		assert.Empty(t, s.Recommendations)
	})

	t.Run("available with both columns", func(t *testing.T) {
		c := NewCorrelator(mustDataset(t, weatherFixture), 0, nil)
		assert.True(t, c.Available())
	})
}

func TestCorrelatorCorrelations(t *testing.T) {
	c := NewCorrelator(mustDataset(t, weatherFixture), 0, nil)
	results := c.Correlations()

	find := func(metric, weather string) (CorrelationResult, bool) {
		for _, res := range results {
			if res.PerformanceMetric == metric && res.WeatherVariable == weather {
				return res, true
			}
		}
		return CorrelationResult{}, false
	}

	t.Run("perfect temperature correlation is significant", func(t *testing.T) {
		res, ok := find("conversions", "temperature_c")
		require.True(t, ok)
		assert.InDelta(t, 1.0, res.Correlation, 1e-9)
		assert.True(t, res.Significant)
	})

	t.Run("absent metrics are not tested", func(t *testing.T) {
		_, ok := find("visits", "temperature_c")
		assert.False(t, ok)
	})
}

func TestCorrelatorJointObservationFloor(t *testing.T) {
	// Revenue has only two non-missing cells, below the three-row floor for
	// that pair; conversions keeps its full five.
	csv := `date,conversions,revenue,temperature_c,rainfall_mm
2024-03-01,10,100,10,0
2024-03-02,12,,12,1
2024-03-03,14,,14,0
2024-03-04,16,160,16,2
2024-03-05,18,,18,0
`
	results := NewCorrelator(mustDataset(t, csv), 0, nil).Correlations()
	for _, res := range results {
		assert.NotEqual(t, "revenue", res.PerformanceMetric)
	}
	assert.NotEmpty(t, results)
}

func TestIsStrong(t *testing.T) {
	c := NewCorrelator(mustDataset(t, weatherFixture), 0, nil)
	tests := []struct {
		name string
		res  CorrelationResult
		want bool
	}{
		{"high r but insignificant", CorrelationResult{Correlation: 0.9, PValue: 0.2, Significant: false}, false},
		{"moderate r and significant", CorrelationResult{Correlation: 0.65, PValue: 0.01, Significant: true}, true},
		{"strong negative", CorrelationResult{Correlation: -0.8, PValue: 0.001, Significant: true}, true},
		{"below magnitude floor", CorrelationResult{Correlation: 0.5, PValue: 0.001, Significant: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.isStrong(tt.res))
		})
	}
}

func TestRainyDays(t *testing.T) {
	// Rainfall of exactly 1.0mm counts as non-rainy.
	csv := `date,conversions,rainfall_mm,temperature_c
2024-03-01,10,0,15
2024-03-02,20,1.0,15
2024-03-03,30,5,15
2024-03-04,50,8,15
`
	analysis := NewCorrelator(mustDataset(t, csv), 0, nil).RainyDays()
	assert.Equal(t, 2, analysis.RainyDaysCount)
	assert.Equal(t, 2, analysis.NonRainyDaysCount)

	conv, ok := analysis.Metrics["conversions"]
	require.True(t, ok)
	assert.Equal(t, 40.0, conv.RainyAvg)
	assert.Equal(t, 15.0, conv.NonRainyAvg)
	assert.InDelta(t, (40.0-15.0)/15.0*100, conv.PctChange, 1e-9)
	assert.Equal(t, "increase", conv.Interpretation)
}

func TestRainyDaysMissingRainfall(t *testing.T) {
	// A row without a rainfall reading belongs to neither population, so it
	// must not dilute the non-rainy averages.
	csv := `date,conversions,rainfall_mm,temperature_c
2024-03-01,10,0,15
2024-03-02,40,5,15
2024-03-03,100,,15
`
	analysis := NewCorrelator(mustDataset(t, csv), 0, nil).RainyDays()
	assert.Equal(t, 1, analysis.RainyDaysCount)
	assert.Equal(t, 1, analysis.NonRainyDaysCount)

	conv, ok := analysis.Metrics["conversions"]
	require.True(t, ok)
	assert.Equal(t, 40.0, conv.RainyAvg)
	assert.Equal(t, 10.0, conv.NonRainyAvg)
	assert.InDelta(t, 300.0, conv.PctChange, 1e-9)
}

func TestTemperatureRanges(t *testing.T) {
	csv := `date,conversions,temperature_c,rainfall_mm
2024-03-01,10,5,0
2024-03-02,20,10,0
2024-03-03,30,15,0
2024-03-04,40,20,0
2024-03-05,50,24.9,0
`
	ranges := NewCorrelator(mustDataset(t, csv), 0, nil).TemperatureRanges()

	// 10 lands in cool and 24.9 in warm: lower bounds inclusive, upper
	// bounds exclusive. No row reaches hot, so the band is omitted.
	require.Len(t, ranges, 4)
	assert.Equal(t, 1, ranges["cold"].Count)
	assert.Equal(t, 1, ranges["cool"].Count)
	assert.Equal(t, 1, ranges["mild"].Count)
	assert.Equal(t, 2, ranges["warm"].Count)
	_, hasHot := ranges["hot"]
	assert.False(t, hasHot)

	warm := ranges["warm"].Metrics["conversions"]
	assert.Equal(t, 45.0, warm.Avg)
	assert.Equal(t, 90.0, warm.Total)
	assert.Equal(t, 50.0, warm.Max)
	assert.Equal(t, 40.0, warm.Min)
}

func TestByChannelImpact(t *testing.T) {
	var b strings.Builder
	b.WriteString("date,channel,conversions,temperature_c,rainfall_mm\n")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%s,email,%d,%d,%d\n", start.AddDate(0, 0, i).Format("2006-01-02"), 10+2*i, 10+i, i%3)
	}
	// Channel with too few rows for a correlation.
	b.WriteString("2024-03-06,print,5,20,0\n2024-03-07,print,6,21,1\n")

	impact := NewCorrelator(mustDataset(t, b.String()), 0, nil).ByChannelImpact()
	require.Contains(t, impact, "email")
	assert.NotContains(t, impact, "print")
	assert.InDelta(t, 1.0, impact["email"].Temperature.Value, 1e-9)
	assert.True(t, impact["email"].Temperature.Significant)
}

func TestWeatherInsightsAndRecommendations(t *testing.T) {
	c := NewCorrelator(mustDataset(t, weatherFixture), 0, nil)

	t.Run("strong correlation surfaces insight and budget shift", func(t *testing.T) {
		insights := c.Insights()
		var corrInsights int
		for _, ins := range insights {
			if ins.Type == "correlation" {
				corrInsights++
				assert.Equal(t, "temperature_c", ins.Weather)
				assert.Contains(t, ins.Text, "increases")
			}
		}
		assert.GreaterOrEqual(t, corrInsights, 1)

		recs := c.Recommendations()
		var budget int
		for _, rec := range recs {
			if rec.Type == "increase_budget_when_favorable" {
				budget++
				assert.Equal(t, PriorityHigh, rec.Priority)
				assert.NotEmpty(t, rec.EstimatedImpact)
			}
		}
		assert.GreaterOrEqual(t, budget, 1)
	})

	t.Run("summary is idempotent", func(t *testing.T) {
		first := NewCorrelator(mustDataset(t, weatherFixture), 0, nil).Summary()
		second := NewCorrelator(mustDataset(t, weatherFixture), 0, nil).Summary()
		assert.Equal(t, first, second)
	})
}
