// Package fusion aggregates per-source rankings of a deduplicated
// document set into one final ordering.
package fusion

import (
	"math"
	"sort"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/pkg/models"
)

// scoredDoc pairs a canonical document with its strategy score.
type scoredDoc struct {
	doc   *models.CanonicalDocument
	score float64
}

// Aggregate orders the merged document set with the selected strategy.
// activeSources lists the sources that reported results this request;
// pairwise strategies use it as their comparison universe. sourceWeights
// carries per-source SQM weights and is consumed only by StrategyBiased
// (unknown sources default to 1.0).
//
// Every strategy is a pure function of its inputs: same documents, same
// active sources, same order out. Ties break on the original merge order.
func Aggregate(docs []*models.CanonicalDocument, strategy Strategy, activeSources []string, sourceWeights map[string]float64) []*models.CanonicalDocument {
	if len(docs) == 0 {
		return nil
	}
	if len(activeSources) == 0 {
		activeSources = sourcesOf(docs)
	}

	var scored []scoredDoc
	ascending := false

	switch strategy {
	case StrategyShimura:
		scored = shimuraScores(docs, activeSources)
	case StrategyModal:
		scored = modalScores(docs, activeSources)
		ascending = true
	case StrategyMFO:
		scored = mfoScores(docs)
	case StrategyMBV:
		scored = mbvScores(docs, activeSources)
	case StrategyOWA:
		scored = owaScores(docs, activeSources)
	case StrategyBiased:
		scored = biasedScores(docs, sourceWeights)
	default:
		scored = bordaScores(docs)
	}

	if ascending {
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score < scored[j].score })
	} else {
		sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	}

	out := make([]*models.CanonicalDocument, len(scored))
	for i, sd := range scored {
		out[i] = sd.doc
	}
	return out
}

// sourcesOf derives a deterministic comparison universe from the documents
// themselves when the caller did not supply one.
func sourcesOf(docs []*models.CanonicalDocument) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, d := range docs {
		for name := range d.SourceRanks {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				sources = append(sources, name)
			}
		}
	}
	sort.Strings(sources)
	return sources
}

// bordaScores assigns each document the sum of (N+1 - rank) over its
// reporting sources.
func bordaScores(docs []*models.CanonicalDocument) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, d := range docs {
		var sum float64
		for _, rank := range d.SourceRanks {
			sum += float64(models.AbsentRank - rank)
		}
		scored[i] = scoredDoc{doc: d, score: sum}
	}
	return scored
}

// biasedScores is Borda with each source's contribution multiplied by its
// SQM weight; sources without a known weight count at 1.0.
func biasedScores(docs []*models.CanonicalDocument, sourceWeights map[string]float64) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, d := range docs {
		var sum float64
		for source, rank := range d.SourceRanks {
			weight := 1.0
			if w, ok := sourceWeights[source]; ok {
				weight = w
			}
			sum += weight * float64(models.AbsentRank-rank)
		}
		scored[i] = scoredDoc{doc: d, score: sum}
	}
	return scored
}

// pairPreference is the fuzzy preference mu(a,b): the fraction of active
// sources ranking a at or above b (absent ranks count as N+1).
func pairPreference(a, b *models.CanonicalDocument, activeSources []string) float64 {
	if len(activeSources) == 0 {
		return 0
	}
	favor := 0
	for _, source := range activeSources {
		if a.RankIn(source) <= b.RankIn(source) {
			favor++
		}
	}
	return float64(favor) / float64(len(activeSources))
}

// shimuraScores applies the maximin rule: a document's standing is its
// weakest pairwise preference against any other document. A single
// document trivially scores 1.
func shimuraScores(docs []*models.CanonicalDocument, activeSources []string) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, a := range docs {
		minPref := 1.0
		for j, b := range docs {
			if i == j {
				continue
			}
			if p := pairPreference(a, b, activeSources); p < minPref {
				minPref = p
			}
		}
		scored[i] = scoredDoc{doc: a, score: minPref}
	}
	return scored
}

// modalScores assigns each document its most frequent per-source rank,
// frequency ties breaking toward the smaller (better) rank.
func modalScores(docs []*models.CanonicalDocument, activeSources []string) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, d := range docs {
		freq := make(map[int]int)
		for _, source := range activeSources {
			freq[d.RankIn(source)]++
		}
		modalRank := models.AbsentRank
		bestCount := 0
		for rank, count := range freq {
			if count > bestCount || (count == bestCount && rank < modalRank) {
				bestCount = count
				modalRank = rank
			}
		}
		scored[i] = scoredDoc{doc: d, score: float64(modalRank)}
	}
	return scored
}

// mfoScores assigns each document its single best per-source membership
// value (N+1 - rank)/N; a document wins on the strength of its strongest
// endorsement.
func mfoScores(docs []*models.CanonicalDocument) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, d := range docs {
		var best float64
		for _, rank := range d.SourceRanks {
			membership := float64(models.AbsentRank-rank) / float64(models.MaxResultsPerSource)
			if membership > best {
				best = membership
			}
		}
		scored[i] = scoredDoc{doc: d, score: best}
	}
	return scored
}

// mbvScores prefers documents with a low mean rank, penalized by the
// spread of their ranks: score = -(mean - 0.5*sqrt(variance)).
func mbvScores(docs []*models.CanonicalDocument, activeSources []string) []scoredDoc {
	scored := make([]scoredDoc, len(docs))
	for i, d := range docs {
		n := float64(len(activeSources))
		if n == 0 {
			scored[i] = scoredDoc{doc: d}
			continue
		}
		var sum float64
		for _, source := range activeSources {
			sum += float64(d.RankIn(source))
		}
		mean := sum / n

		var sqSum float64
		for _, source := range activeSources {
			diff := float64(d.RankIn(source)) - mean
			sqSum += diff * diff
		}
		variance := sqSum / n // population variance

		scored[i] = scoredDoc{doc: d, score: -(mean - 0.5*math.Sqrt(variance))}
	}
	return scored
}

// owaWeights returns the OWA weight vector w_j = 2(m+1-j)/(m(m+1)) for
// j = 1..m. The weights sum to 1 and decay linearly.
func owaWeights(m int) []float64 {
	weights := make([]float64, m)
	denom := float64(m * (m + 1))
	for j := 1; j <= m; j++ {
		weights[j-1] = 2 * float64(m+1-j) / denom
	}
	return weights
}

// owaScores smooths the harsh Shimura minimum: each pair's binary
// preference vector is sorted descending and combined with the OWA
// weights; the document score is the minimum weighted pair score.
func owaScores(docs []*models.CanonicalDocument, activeSources []string) []scoredDoc {
	m := len(activeSources)
	weights := owaWeights(m)

	scored := make([]scoredDoc, len(docs))
	for i, a := range docs {
		minPair := 1.0
		for j, b := range docs {
			if i == j {
				continue
			}
			prefs := make([]float64, 0, m)
			for _, source := range activeSources {
				if a.RankIn(source) <= b.RankIn(source) {
					prefs = append(prefs, 1)
				} else {
					prefs = append(prefs, 0)
				}
			}
			sort.Sort(sort.Reverse(sort.Float64Slice(prefs)))

			var pair float64
			for k, p := range prefs {
				pair += weights[k] * p
			}
			if pair < minPair {
				minPair = pair
			}
		}
		scored[i] = scoredDoc{doc: a, score: minPair}
	}
	return scored
}
