package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// MockStore is an in-memory core.DocStore used by tests and for running the
// bot without a Milvus instance. Search results are canned per namespace
// and channel; inserts are recorded.
type MockStore struct {
	mu sync.Mutex

	VectorResults  map[string][]core.RetrievalHit
	KeywordResults map[string][]core.RetrievalHit
	VectorErr      error
	KeywordErr     error

	Inserted        map[string][]core.Chunk
	SearchedVector  []string
	SearchedKeyword []string
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		VectorResults:  make(map[string][]core.RetrievalHit),
		KeywordResults: make(map[string][]core.RetrievalHit),
		Inserted:       make(map[string][]core.Chunk),
	}
}

// VectorSearch returns the canned vector hits for the namespace.
func (s *MockStore) VectorSearch(ctx context.Context, namespace string, dense []float32, k int) ([]core.RetrievalHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchedVector = append(s.SearchedVector, namespace)
	if s.VectorErr != nil {
		return nil, s.VectorErr
	}
	return s.VectorResults[namespace], nil
}

// KeywordSearch returns the canned keyword hits for the namespace.
func (s *MockStore) KeywordSearch(ctx context.Context, namespace string, sparse map[uint32]float32, k int) ([]core.RetrievalHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchedKeyword = append(s.SearchedKeyword, namespace)
	if s.KeywordErr != nil {
		return nil, s.KeywordErr
	}
	return s.KeywordResults[namespace], nil
}

// InsertChunk records the chunk under its namespace.
func (s *MockStore) InsertChunk(ctx context.Context, namespace string, chunk core.Chunk, title string, meta map[string]interface{}, vec core.EmbeddingVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Debug("mock store: insert chunk %d of %q into %s", chunk.Index, title, namespace)
	s.Inserted[namespace] = append(s.Inserted[namespace], chunk)
	return nil
}

// MockEmbedder is a deterministic core.EmbedService for tests.
type MockEmbedder struct {
	Dim int
	Err error
}

// EmbedQuery returns a fixed-pattern hybrid vector of the configured
// dimension, or the configured error.
func (e *MockEmbedder) EmbedQuery(ctx context.Context, text string) (core.EmbeddingVector, error) {
	if e.Err != nil {
		return core.EmbeddingVector{}, e.Err
	}
	dim := e.Dim
	if dim <= 0 {
		dim = 8
	}
	dense := make([]float32, dim)
	for i := range dense {
		dense[i] = float32(i%10) * 0.1
	}
	return core.EmbeddingVector{
		Dense:  dense,
		Sparse: map[uint32]float32{1: 0.5, 7: 0.25},
	}, nil
}

// MockLLM is a scripted core.LLMService: each call pops the next canned
// reply. Prompts are recorded for assertions.
type MockLLM struct {
	mu      sync.Mutex
	Replies []string
	Err     error

	SystemPrompts []string
	UserPrompts   []string
}

// Complete pops and returns the next scripted reply.
func (m *MockLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SystemPrompts = append(m.SystemPrompts, systemPrompt)
	m.UserPrompts = append(m.UserPrompts, userPrompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "", fmt.Errorf("mock llm: no scripted reply left")
	}
	reply := m.Replies[0]
	m.Replies = m.Replies[1:]
	return reply, nil
}
