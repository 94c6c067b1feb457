package analytics

// weaknessTemplate is a remediation playbook entry for one underperforming
// metric. The gap percentage is interpolated into Text at emission time.
type weaknessTemplate struct {
	recType  string
	priority Priority
	text     string // fmt template taking the gap percentage
}

// weaknessPlaybook maps a benchmark-weakness metric to its remediation. The
// table is closed-world: metrics without an entry produce no recommendation.
var weaknessPlaybook = map[string]weaknessTemplate{
	"ctr": {
		recType:  "improve_ctr",
		priority: PriorityHigh,
		text:     "CTR is %.1f%% below benchmark. Test new ad copy, landing pages, and targeting to improve click-through.",
	},
	"cpc": {
		recType:  "reduce_cpc",
		priority: PriorityHigh,
		text:     "CPC is %.1f%% above benchmark. Refine audience targeting and bid strategy to reduce cost per click.",
	},
	"cvr": {
		recType:  "improve_cvr",
		priority: PriorityHigh,
		text:     "Conversion rate is %.1f%% below benchmark. Optimize landing pages, reduce friction, and A/B test conversion flows.",
	},
	"roas": {
		recType:  "improve_roas",
		priority: PriorityHigh,
		text:     "ROAS is %.1f%% below benchmark. Focus on high-AOV products, improve targeting, and allocate budget to best performers.",
	},
}
