package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kpiFixture = `date,channel,campaign,city,impressions,clicks,conversions,spend,revenue,visits
2024-03-04,email,alpha,Berlin,1000,50,5,25,100,200
2024-03-05,email,alpha,Berlin,2000,100,10,50,300,400
2024-03-05,search,beta,Munich,4000,80,4,160,240,100
2024-03-06,search,beta,Munich,3000,60,6,120,360,150
2024-03-10,social,gamma,Berlin,5000,25,1,75,30,50
`

func TestDeriveRates(t *testing.T) {
	t.Run("ratios from sums", func(t *testing.T) {
		k := KpiRecord{Impressions: 1000, Clicks: 50, Conversions: 5, Spend: 25, Revenue: 100}
		deriveRates(&k)
		assert.Equal(t, 5.0, k.CTR)
		assert.Equal(t, 0.5, k.CPC)
		assert.Equal(t, 10.0, k.CVR)
		assert.Equal(t, 5.0, k.CPA)
		assert.Equal(t, 4.0, k.ROAS)
	})

	t.Run("zero denominators yield exactly zero", func(t *testing.T) {
		k := KpiRecord{}
		deriveRates(&k)
		assert.Equal(t, 0.0, k.CTR)
		assert.Equal(t, 0.0, k.CPC)
		assert.Equal(t, 0.0, k.CVR)
		assert.Equal(t, 0.0, k.CPA)
		assert.Equal(t, 0.0, k.ROAS)
	})
}

func TestAggregatorOverall(t *testing.T) {
	ds := mustDataset(t, kpiFixture)
	o := NewAggregator(ds, nil).Overall()

	assert.Equal(t, 15000.0, o.TotalImpressions)
	assert.Equal(t, 315.0, o.TotalClicks)
	assert.Equal(t, 26.0, o.TotalConversions)
	assert.Equal(t, 430.0, o.TotalSpend)
	assert.Equal(t, 1030.0, o.TotalRevenue)
	assert.Equal(t, 900.0, o.TotalVisits)
	assert.InDelta(t, 315.0/15000.0*100, o.CTR, 1e-12)
	assert.InDelta(t, 1030.0/430.0, o.ROAS, 1e-12)
	assert.InDelta(t, 3000.0, o.AvgDailyImpressions, 1e-12)
}

func TestAggregatorOverallMissingValues(t *testing.T) {
	// The blank spend cell is excluded from the sum, not counted as zero.
	ds := mustDataset(t, "impressions,spend\n100,10\n200,\n")
	o := NewAggregator(ds, nil).Overall()
	assert.Equal(t, 300.0, o.TotalImpressions)
	assert.Equal(t, 10.0, o.TotalSpend)
}

func TestAggregatorGrouping(t *testing.T) {
	ds := mustDataset(t, kpiFixture)
	a := NewAggregator(ds, nil)

	t.Run("by channel", func(t *testing.T) {
		byChannel := a.ByChannel()
		require.Len(t, byChannel, 3)
		email := byChannel["email"]
		assert.Equal(t, 3000.0, email.Impressions)
		assert.Equal(t, 150.0, email.Clicks)
		assert.InDelta(t, 5.0, email.CTR, 1e-12)
	})

	t.Run("by city", func(t *testing.T) {
		byCity := a.ByCity()
		require.Len(t, byCity, 2)
		berlin := byCity["Berlin"]
		assert.Equal(t, 650.0, berlin.Visits)
		assert.InDelta(t, 16.0/650.0*100, berlin.ConversionRate, 1e-12)
		assert.InDelta(t, 430.0/650.0, berlin.RevenuePerVisit, 1e-12)
	})

	t.Run("by day of week only includes present days", func(t *testing.T) {
		byDay := a.ByDayOfWeek()
		require.Len(t, byDay, 4) // Monday, Tuesday, Wednesday, Sunday
		monday := byDay["Monday"]
		// 2024-03-04 and 2024-03-10 fall on Monday and Sunday respectively.
		assert.Equal(t, 1000.0, monday.Impressions)
		sunday := byDay["Sunday"]
		assert.Equal(t, 5000.0, sunday.Impressions)
		_, hasFriday := byDay["Friday"]
		assert.False(t, hasFriday)
	})

	t.Run("daily trend is sorted ascending", func(t *testing.T) {
		trend := a.ByDate()
		require.Len(t, trend, 4)
		for i := 1; i < len(trend); i++ {
			assert.True(t, trend[i-1].Date.Before(trend[i].Date))
		}
		// 2024-03-05 aggregates two rows across channels.
		assert.Equal(t, 6000.0, trend[1].Impressions)
	})

	t.Run("missing grouping column yields empty result", func(t *testing.T) {
		noCity := mustDataset(t, "channel,impressions\nemail,100\n")
		assert.Empty(t, NewAggregator(noCity, nil).ByCity())
	})
}

func TestAggregatorRanking(t *testing.T) {
	ds := mustDataset(t, kpiFixture)
	a := NewAggregator(ds, nil)

	t.Run("roas ranks descending", func(t *testing.T) {
		top := a.TopPerformers("roas", 2)
		require.Len(t, top, 2)
		// alpha roas = 400/75, beta = 600/280, gamma = 30/75.
		assert.Equal(t, "alpha", top[0].Group)
		assert.Equal(t, "beta", top[1].Group)
	})

	t.Run("cost metrics rank ascending", func(t *testing.T) {
		top := a.TopPerformers("cpa", 3)
		require.Len(t, top, 3)
		// alpha cpa = 5, beta = 28, gamma = 75.
		assert.Equal(t, "alpha", top[0].Group)
		assert.Equal(t, "gamma", top[2].Group)
	})

	t.Run("name prefix heuristic also orders ctr ascending", func(t *testing.T) {
		// ctr: alpha 5%, beta 2%, gamma 0.5%. The c-prefix rule means
		// "best" is the lowest, so gamma leads.
		top := a.TopPerformers("ctr", 1)
		require.Len(t, top, 1)
		assert.Equal(t, "gamma", top[0].Group)
	})

	t.Run("worst inverts the order", func(t *testing.T) {
		worst := a.WorstPerformers("roas", 1)
		require.Len(t, worst, 1)
		assert.Equal(t, "gamma", worst[0].Group)
	})

	t.Run("unknown metric keeps input order descending", func(t *testing.T) {
		top := a.TopPerformers("nonexistent", 3)
		require.Len(t, top, 3)
		assert.Equal(t, "alpha", top[0].Group)
	})
}

func TestAggregatorSummaryIdempotent(t *testing.T) {
	ds := mustDataset(t, kpiFixture)
	first := NewAggregator(ds, nil).Summary()
	second := NewAggregator(ds, nil).Summary()
	assert.Equal(t, first, second)
}
