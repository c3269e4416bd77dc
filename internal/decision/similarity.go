package decision

import "strings"

// relatedThreshold gates which prior decisions get linked. Strictly greater:
// a bare type match (exactly 0.3) is not enough on its own.
const relatedThreshold = 0.3

// maxRelated caps the related-decision list.
const maxRelated = 5

// similarity scores how alike two decisions are, in [0,1]:
// 0.3 for matching types, up to 0.4 for shared tags, up to 0.3 for shared
// significant words (longer than 3 chars) in the descriptions. Symmetric by
// construction: both ratios divide by the larger of the two counts.
func similarity(a, b *Decision) float64 {
	score := 0.0

	if a.Type == b.Type {
		score += 0.3
	}

	if shared, max := sharedCount(a.Tags, b.Tags); max > 0 {
		score += float64(shared) / float64(max) * 0.4
	}

	aw := significantWords(a.Description)
	bw := significantWords(b.Description)
	if shared, max := sharedCount(aw, bw); max > 0 {
		score += float64(shared) / float64(max) * 0.3
	}

	return score
}

// sharedCount returns how many distinct entries the two lists share and the
// size of the larger list.
func sharedCount(a, b []string) (shared, max int) {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[strings.ToLower(s)] = true
	}
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		ls := strings.ToLower(s)
		if set[ls] && !seen[ls] {
			seen[ls] = true
			shared++
		}
	}
	max = len(a)
	if len(b) > max {
		max = len(b)
	}
	return shared, max
}

// significantWords extracts the distinct lowercase words longer than three
// characters.
func significantWords(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:()[]¡!¿?\"'")
		if len(w) > 3 && !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

// relationKind names the link between two similar decisions.
func relationKind(score float64) string {
	switch {
	case score >= 0.7:
		return "strongly_related"
	case score >= 0.5:
		return "related"
	default:
		return "loosely_related"
	}
}
