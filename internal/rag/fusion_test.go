package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

func hit(id string, score float32, ch core.Channel) core.RetrievalHit {
	return core.RetrievalHit{
		ID:      id,
		Content: "content of " + id,
		Score:   score,
		Channel: ch,
	}
}

func TestFuseDeduplicatesByID(t *testing.T) {
	vector := []core.RetrievalHit{hit("a", 0.9, core.ChannelVector), hit("b", 0.5, core.ChannelVector)}
	keyword := []core.RetrievalHit{hit("a", 0.3, core.ChannelKeyword), hit("c", 0.7, core.ChannelKeyword)}

	fused := Fuse(vector, keyword, 8)

	require.Len(t, fused, 3)
	seen := map[string]bool{}
	for _, h := range fused {
		assert.False(t, seen[h.ID], "duplicate id %s", h.ID)
		seen[h.ID] = true
	}
}

func TestFuseKeepsHigherScoreAcrossScales(t *testing.T) {
	// Dense similarity and keyword rank are on different scales; the raw
	// maximum wins regardless.
	vector := []core.RetrievalHit{hit("x", 0.9, core.ChannelVector)}
	keyword := []core.RetrievalHit{hit("x", 5, core.ChannelKeyword)}

	fused := Fuse(vector, keyword, 8)

	require.Len(t, fused, 1)
	assert.Equal(t, "x", fused[0].ID)
	assert.Equal(t, float32(5), fused[0].Score)
	assert.Equal(t, core.ChannelKeyword, fused[0].Channel)
}

func TestFuseTieKeepsVectorHit(t *testing.T) {
	vector := []core.RetrievalHit{hit("x", 0.5, core.ChannelVector)}
	keyword := []core.RetrievalHit{hit("x", 0.5, core.ChannelKeyword)}

	fused := Fuse(vector, keyword, 8)

	require.Len(t, fused, 1)
	assert.Equal(t, core.ChannelVector, fused[0].Channel)
}

func TestFuseSortsDescendingAndTruncates(t *testing.T) {
	vector := []core.RetrievalHit{
		hit("a", 0.2, core.ChannelVector),
		hit("b", 0.9, core.ChannelVector),
		hit("c", 0.4, core.ChannelVector),
	}
	keyword := []core.RetrievalHit{
		hit("d", 0.8, core.ChannelKeyword),
		hit("e", 0.1, core.ChannelKeyword),
	}

	fused := Fuse(vector, keyword, 3)

	require.Len(t, fused, 3)
	for i := 1; i < len(fused); i++ {
		assert.GreaterOrEqual(t, fused[i-1].Score, fused[i].Score)
	}
	assert.Equal(t, []string{"b", "d", "c"}, []string{fused[0].ID, fused[1].ID, fused[2].ID})
}

func TestFuseDefaultLimit(t *testing.T) {
	var vector []core.RetrievalHit
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		vector = append(vector, hit(id, 0.5, core.ChannelVector))
	}

	fused := Fuse(vector, nil, 0)
	assert.Len(t, fused, DefaultFusionLimit)
}

func TestFuseTolerantOfEmptyChannels(t *testing.T) {
	keyword := []core.RetrievalHit{hit("k", 3, core.ChannelKeyword)}

	assert.Len(t, Fuse(nil, keyword, 8), 1)
	assert.Len(t, Fuse(keyword, nil, 8), 1)
	assert.Empty(t, Fuse(nil, nil, 8))
}

func TestPackRespectsBudget(t *testing.T) {
	results := []core.RetrievalHit{
		{ID: "a", Content: strings.Repeat("x", 40), Score: 0.9},
		{ID: "b", Content: strings.Repeat("y", 40), Score: 0.8},
		{ID: "c", Content: strings.Repeat("z", 40), Score: 0.7},
	}

	packed := Pack(results, 100)

	// Third item would overflow; window stops before it.
	require.Len(t, packed, 2)
	assert.Equal(t, "a", packed[0].ID)
	assert.Equal(t, "b", packed[1].ID)
}

func TestPackIsPrefixOfInput(t *testing.T) {
	results := []core.RetrievalHit{
		{ID: "a", Content: "aaaa"},
		{ID: "b", Content: "bbbb"},
		{ID: "c", Content: "cccc"},
	}

	packed := Pack(results, 9)
	require.Len(t, packed, 2)
	for i := range packed {
		assert.Equal(t, results[i].ID, packed[i].ID)
	}
}

func TestPackOversizedFirstItem(t *testing.T) {
	results := []core.RetrievalHit{{ID: "a", Content: strings.Repeat("x", 500)}}
	assert.Empty(t, Pack(results, 100))
}

func TestPackZeroBudget(t *testing.T) {
	results := []core.RetrievalHit{{ID: "a", Content: "x"}}
	assert.Empty(t, Pack(results, 0))
}

func TestRetrieverDegradesPerChannel(t *testing.T) {
	store := NewMockStore()
	store.VectorErr = errors.New("milvus down")
	store.KeywordResults["pdf_docs"] = []core.RetrievalHit{hit("k1", 2, core.ChannelKeyword)}

	r := NewRetriever(&MockEmbedder{Dim: 8}, store)
	got := r.Retrieve(context.Background(), "pdf_docs", "연차는 며칠인가요?")

	require.Len(t, got, 1)
	assert.Equal(t, "k1", got[0].ID)
}

func TestRetrieverEmbedFailureEmptiesContext(t *testing.T) {
	store := NewMockStore()
	store.VectorResults["pdf_docs"] = []core.RetrievalHit{hit("v1", 0.9, core.ChannelVector)}

	r := NewRetriever(&MockEmbedder{Err: errors.New("embed service down")}, store)
	got := r.Retrieve(context.Background(), "pdf_docs", "question")

	assert.Empty(t, got)
	assert.Empty(t, store.SearchedVector, "store must not be queried without an embedding")
}
