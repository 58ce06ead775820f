package rag

import (
	"context"
	"sync"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// Retriever runs hybrid retrieval for one namespace: embed the query, fan
// out to the vector and keyword channels, fuse and pack the results.
type Retriever struct {
	embed core.EmbedService
	store core.DocStore

	// PerChannelK is how many hits each channel is asked for.
	PerChannelK int
	// FusionLimit caps the merged result list.
	FusionLimit int
	// MaxContextChars bounds the packed context window.
	MaxContextChars int
}

// NewRetriever creates a retriever with the default budgets.
func NewRetriever(embed core.EmbedService, store core.DocStore) *Retriever {
	return &Retriever{
		embed:           embed,
		store:           store,
		PerChannelK:     DefaultFusionLimit,
		FusionLimit:     DefaultFusionLimit,
		MaxContextChars: DefaultContextChars,
	}
}

// Retrieve returns the packed context window for the question in the given
// namespace. A failing channel degrades to an empty channel instead of
// failing the request; an embedding failure empties both channels.
func (r *Retriever) Retrieve(ctx context.Context, namespace, question string) []core.RetrievalHit {
	vec, err := r.embed.EmbedQuery(ctx, question)
	if err != nil {
		logger.Warn("embedding unavailable for namespace %s, returning empty context: %v", namespace, err)
		return nil
	}

	var (
		wg          sync.WaitGroup
		vectorHits  []core.RetrievalHit
		keywordHits []core.RetrievalHit
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		hits, err := r.store.VectorSearch(ctx, namespace, vec.Dense, r.PerChannelK)
		if err != nil {
			logger.Warn("vector channel failed for namespace %s: %v", namespace, err)
			return
		}
		vectorHits = hits
	}()
	go func() {
		defer wg.Done()
		hits, err := r.store.KeywordSearch(ctx, namespace, vec.Sparse, r.PerChannelK)
		if err != nil {
			logger.Warn("keyword channel failed for namespace %s: %v", namespace, err)
			return
		}
		keywordHits = hits
	}()
	wg.Wait()

	fused := Fuse(vectorHits, keywordHits, r.FusionLimit)
	packed := Pack(fused, r.MaxContextChars)
	logger.Debug("namespace %s: %d vector + %d keyword hits fused to %d, packed to %d",
		namespace, len(vectorHits), len(keywordHits), len(fused), len(packed))
	return packed
}
