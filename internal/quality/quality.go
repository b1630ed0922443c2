// Package quality measures per-source search quality by rank-correlating
// each source's native ordering with the user's derived preferences.
package quality

import (
	"sort"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/importance"
)

// MinSampleSize is the smallest document subset a Spearman correlation is
// computed over. Below it the result is reported as insufficient data.
const MinSampleSize = 2

// Spearman computes the rank correlation between two equal-length rank
// assignments: rho = 1 - 6*sum(d^2) / (n*(n^2-1)). When both inputs are
// permutations of 1..n the result is bounded to [-1, 1] by construction.
// Fewer than MinSampleSize elements yields 0.
func Spearman(a, b []int) float64 {
	n := len(a)
	if n != len(b) || n < MinSampleSize {
		return 0
	}
	var sumSq float64
	for i := range a {
		d := float64(a[i] - b[i])
		sumSq += d * d
	}
	return 1 - (6*sumSq)/(float64(n)*float64(n*n-1))
}

// ComputeSQM computes one Spearman correlation per source between the
// user's preference ranking and that source's native ordering.
//
// preference is the session's importance-ordered document list;
// perSourceRanks maps source name -> normalized document key -> native
// rank. Each source restricts to the documents it reported that also
// carry feedback, dense-ranks that subset under both orderings, and
// correlates. Sources with fewer than MinSampleSize scorable documents
// are skipped; a preference ranking below MinSampleSize yields a nil map
// (insufficient data is a no-op, never an error).
func ComputeSQM(preference []importance.ScoredDocument, perSourceRanks map[string]map[string]int) map[string]float64 {
	if len(preference) < MinSampleSize {
		return nil
	}

	result := make(map[string]float64)
	for source, nativeRanks := range perSourceRanks {
		subset := restrict(preference, nativeRanks)
		if len(subset) < MinSampleSize {
			continue
		}

		prefRanks := denseRanksByPreference(subset)
		engineRanks := denseRanksByNative(subset, nativeRanks)
		result[source] = Spearman(prefRanks, engineRanks)
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// restrict keeps the preference entries this source reported, preserving
// preference order.
func restrict(preference []importance.ScoredDocument, nativeRanks map[string]int) []importance.ScoredDocument {
	var subset []importance.ScoredDocument
	for _, doc := range preference {
		if _, ok := nativeRanks[doc.Key]; ok {
			subset = append(subset, doc)
		}
	}
	return subset
}

// denseRanksByPreference assigns 1-based ranks in preference order; the
// subset already arrives sorted by descending importance.
func denseRanksByPreference(subset []importance.ScoredDocument) []int {
	ranks := make([]int, len(subset))
	for i := range subset {
		ranks[i] = i + 1
	}
	return ranks
}

// denseRanksByNative assigns 1-based ranks within the subset following the
// source's native ordering, keyed back to subset positions.
func denseRanksByNative(subset []importance.ScoredDocument, nativeRanks map[string]int) []int {
	idx := make([]int, len(subset))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return nativeRanks[subset[idx[a]].Key] < nativeRanks[subset[idx[b]].Key]
	})

	ranks := make([]int, len(subset))
	for dense, pos := range idx {
		ranks[pos] = dense + 1
	}
	return ranks
}
