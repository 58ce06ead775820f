package rag

import (
	"sort"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

// Defaults for the fused context window.
const (
	DefaultFusionLimit  = 8
	DefaultContextChars = 8000
)

// Fuse merges the two channel result lists into one deduplicated,
// score-sorted list of at most limit hits.
//
// When an id shows up in both channels the strictly higher-scoring hit
// survives; on an exact tie the vector hit wins because vector results are
// concatenated first. Channel scores are compared raw even though dense
// similarity and sparse rank live on different scales.
func Fuse(vectorHits, keywordHits []core.RetrievalHit, limit int) []core.RetrievalHit {
	if limit <= 0 {
		limit = DefaultFusionLimit
	}

	byID := make(map[string]int)
	merged := make([]core.RetrievalHit, 0, len(vectorHits)+len(keywordHits))

	for _, hit := range append(append([]core.RetrievalHit{}, vectorHits...), keywordHits...) {
		pos, seen := byID[hit.ID]
		if !seen {
			byID[hit.ID] = len(merged)
			merged = append(merged, hit)
			continue
		}
		if hit.Score > merged[pos].Score {
			merged[pos] = hit
		}
	}

	// Stable sort keeps first-encounter order on equal scores, so the
	// output is reproducible for identical inputs.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Pack returns the longest prefix of results whose cumulative content
// length stays within maxChars. Items are never split: the first item that
// would overflow the budget ends the window, even if it is the first one.
func Pack(results []core.RetrievalHit, maxChars int) []core.RetrievalHit {
	packed := make([]core.RetrievalHit, 0, len(results))
	total := 0
	for _, r := range results {
		if total+len(r.Content) > maxChars {
			break
		}
		total += len(r.Content)
		packed = append(packed, r)
	}
	return packed
}
