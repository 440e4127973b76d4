package quiz

import "strings"

// MatchResult is the per-item classification of a submitted answer.
type MatchResult struct {
	Items   []ItemFeedback
	Matched int
	Missing []string
}

// Normalize lowercases and trims s. Matching is exact on the normalized form.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchSynonyms compares submitted items against the canonical synonyms.
//
// Items that are blank after trimming are skipped. Each canonical synonym
// credits at most one item; a second item naming it is a duplicate.
// Canonical synonyms left uncredited are returned as Missing, in canonical order.
func MatchSynonyms(canonical, submitted []string) MatchResult {
	// index maps a normalized synonym to its first canonical position.
	index := make(map[string]int, len(canonical))
	for i, syn := range canonical {
		if _, ok := index[Normalize(syn)]; !ok {
			index[Normalize(syn)] = i
		}
	}

	credited := make([]bool, len(canonical))
	res := MatchResult{Items: []ItemFeedback{}, Missing: []string{}}
	for _, raw := range submitted {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		i, ok := index[n]
		switch {
		case !ok:
			res.Items = append(res.Items, ItemFeedback{Input: raw, Status: ItemUnmatched})
		case credited[i]:
			res.Items = append(res.Items, ItemFeedback{Input: raw, Status: ItemDuplicate, Synonym: canonical[i]})
		default:
			credited[i] = true
			res.Matched++
			res.Items = append(res.Items, ItemFeedback{Input: raw, Status: ItemMatched, Synonym: canonical[i]})
		}
	}

	for i, syn := range canonical {
		if index[Normalize(syn)] == i && !credited[i] {
			res.Missing = append(res.Missing, syn)
		}
	}
	return res
}

// distinctCount returns the number of distinct normalized synonyms.
func distinctCount(canonical []string) int {
	seen := make(map[string]struct{}, len(canonical))
	for _, syn := range canonical {
		seen[Normalize(syn)] = struct{}{}
	}
	return len(seen)
}
