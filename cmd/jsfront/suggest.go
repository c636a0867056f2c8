package main

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// suggest returns the candidate closest to name: the best fuzzy match if
// name is a subsequence of some candidate, otherwise the nearest by edit
// distance when it is close enough to be a typo.
func suggest(name string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if ranks := fuzzy.RankFindFold(name, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target, true
	}

	best, bestDist := "", -1
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(name, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist <= len(name)/2 {
		return best, true
	}
	return "", false
}

func unknownFunction(name string, candidates []string) error {
	if s, ok := suggest(name, candidates); ok {
		return fmt.Errorf("no function named %q (did you mean %q?)", name, s)
	}
	return fmt.Errorf("no function named %q", name)
}
