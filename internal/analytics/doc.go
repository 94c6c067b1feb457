// Package analytics is the analysis engine: four cooperating analyzers over
// one immutable dataset snapshot.
//
// The Aggregator computes ratio-based efficiency metrics at six
// granularities. The Detector flags statistical outliers per metric via
// z-scores. The Correlator tests weather association with performance. The
// Comparator measures client KPIs against an external benchmark table. Each
// analyzer additionally derives Insight and Recommendation records from its
// own numeric results.
//
// Every analyzer is a pure function of its inputs: results are returned,
// never accumulated on the analyzer, so re-running on an unchanged dataset
// yields identical summaries. Missing data degrades to empty results or
// documented zero fallbacks; the only fatal condition is an unconstructable
// dataset, which is handled upstream.
package analytics
