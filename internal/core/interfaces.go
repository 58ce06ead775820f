package core

import "context"

// EmbedService generates hybrid (dense + sparse) embeddings for a text.
type EmbedService interface {
	EmbedQuery(ctx context.Context, text string) (EmbeddingVector, error)
}

// LLMService is the chat-completion collaborator. Only the textual payload
// is ever inspected.
type LLMService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// DocStore is the document/vector store, queried per namespace through two
// independent channels and written to at ingestion time.
type DocStore interface {
	VectorSearch(ctx context.Context, namespace string, dense []float32, k int) ([]RetrievalHit, error)
	KeywordSearch(ctx context.Context, namespace string, sparse map[uint32]float32, k int) ([]RetrievalHit, error)
	InsertChunk(ctx context.Context, namespace string, chunk Chunk, title string, meta map[string]interface{}, vec EmbeddingVector) error
}

// MemoryStore is the external append-only conversational history.
type MemoryStore interface {
	// GetRecent returns up to limit entries for the user, newest first.
	GetRecent(ctx context.Context, userID string, limit int) ([]MemoryEntry, error)
	Append(ctx context.Context, userID, role, content string) error
}
