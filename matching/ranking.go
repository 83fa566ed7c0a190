package matching

import "sort"

// MaxResults caps every ranked match list.
const MaxResults = 20

// rank orders results by score, then total views, both descending. Ties keep their
// input order, so the output is fixed for a fixed input.
func rank(results []MatchResult) []MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return results[i].TotalViews > results[j].TotalViews
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}
