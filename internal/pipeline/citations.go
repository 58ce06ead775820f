package pipeline

import (
	"fmt"
	"strings"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

// placeholderLabel is used when a hit carries neither a source nor a title.
// A citation entry must never render with an empty label.
const placeholderLabel = "출처미상"

// BuildCitations renders the final context set as a 1-indexed source list:
// "[1]취업규칙:2 [2]근로기준법:0", entries joined by a single space.
func BuildCitations(hits []core.RetrievalHit) string {
	parts := make([]string, 0, len(hits))
	for i, h := range hits {
		label := metaString(h.Meta, "source")
		if label == "" {
			label = metaString(h.Meta, "title")
		}
		if label == "" {
			label = placeholderLabel
		}

		page, ok := metaInt(h.Meta, "page")
		if !ok {
			page, _ = metaInt(h.Meta, "chunk_index")
		}

		parts = append(parts, fmt.Sprintf("[%d]%s:%d", i+1, label, page))
	}
	return strings.Join(parts, " ")
}

func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaInt tolerates the numeric types JSON decoding produces.
func metaInt(meta map[string]interface{}, key string) (int, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	default:
		return 0, false
	}
}
