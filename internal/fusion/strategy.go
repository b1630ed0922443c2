// Package fusion aggregates per-source rankings of a deduplicated
// document set into one final ordering.
package fusion

// Strategy selects one of the closed set of aggregation rules. The set is
// a fixed variant; every value dispatches to its own pure scoring
// function.
type Strategy int

const (
	// StrategyBorda is positional voting: sum of (N+1 - rank) over
	// reporting sources.
	StrategyBorda Strategy = iota
	// StrategyShimura is the maximin robust-preference rule over pairwise
	// fuzzy preferences.
	StrategyShimura
	// StrategyModal orders by the most frequent per-source rank.
	StrategyModal
	// StrategyMFO orders by the single best per-source membership value.
	StrategyMFO
	// StrategyMBV orders by mean rank penalized by rank variance.
	StrategyMBV
	// StrategyOWA is Shimura with ordered weighted averaging in place of
	// the plain minimum.
	StrategyOWA
	// StrategyBiased is Borda with per-source SQM weight multipliers.
	StrategyBiased
)

var strategyNames = map[Strategy]string{
	StrategyBorda:   "borda",
	StrategyShimura: "shimura",
	StrategyModal:   "modal",
	StrategyMFO:     "mfo",
	StrategyMBV:     "mbv",
	StrategyOWA:     "owa",
	StrategyBiased:  "biased",
}

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "borda"
}

// ParseStrategy resolves a wire name to a Strategy. An unknown or empty
// name resolves to Borda; that fallback is the documented policy for
// unrecognized strategies, not an accident of a switch default.
func ParseStrategy(name string) Strategy {
	switch name {
	case "borda":
		return StrategyBorda
	case "shimura":
		return StrategyShimura
	case "modal":
		return StrategyModal
	case "mfo":
		return StrategyMFO
	case "mbv":
		return StrategyMBV
	case "owa":
		return StrategyOWA
	case "biased":
		return StrategyBiased
	default:
		return StrategyBorda
	}
}

// KnownStrategy reports whether name maps to a strategy without the Borda
// fallback kicking in. Callers that want to log the fallback use this.
func KnownStrategy(name string) bool {
	for _, n := range strategyNames {
		if n == name {
			return true
		}
	}
	return false
}
