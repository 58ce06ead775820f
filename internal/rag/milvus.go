package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// Field names shared by all namespace collections.
const (
	FieldID        = "id"
	FieldText      = "text"
	FieldTitle     = "title"
	FieldMetadata  = "metadata"
	FieldCreatedAt = "created_at"
	FieldDense     = "dense"
	FieldSparse    = "sparse"
)

// Namespace collections, one per retrieval agent.
const (
	PDFCollection = "pdf_docs"
	LawCollection = "law_docs"
)

// DefaultEmbeddingDim is the BGE-M3 dense dimension.
const DefaultEmbeddingDim = 1024

// Namespaces lists every collection the store manages.
func Namespaces() []string {
	return []string{PDFCollection, LawCollection}
}

// MilvusStore implements core.DocStore on a Milvus instance with one
// collection per namespace, each carrying a dense and a sparse index.
type MilvusStore struct {
	client       *milvusclient.Client
	embeddingDim int
}

// NewMilvusStore connects to Milvus and ensures the namespace collections
// exist and are loaded.
func NewMilvusStore(ctx context.Context, addr string, embeddingDim int) (*MilvusStore, error) {
	if embeddingDim <= 0 {
		embeddingDim = DefaultEmbeddingDim
	}
	logger.Info("Connecting to Milvus at %s with dimension %d", addr, embeddingDim)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	s := &MilvusStore{client: c, embeddingDim: embeddingDim}
	for _, ns := range Namespaces() {
		if err := s.ensureCollection(ctx, ns); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ensureCollection creates and loads one namespace collection if missing.
func (s *MilvusStore) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check if collection %s exists: %w", name, err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: name,
			Description:    "Hybrid-search HR document chunks",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{"max_length": "255"},
				},
				{
					Name:       FieldText,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "65535"},
				},
				{
					Name:       FieldTitle,
					DataType:   entity.FieldTypeVarChar,
					TypeParams: map[string]string{"max_length": "512"},
				},
				{
					Name:     FieldMetadata,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     FieldCreatedAt,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:       FieldDense,
					DataType:   entity.FieldTypeFloatVector,
					TypeParams: map[string]string{"dim": fmt.Sprintf("%d", s.embeddingDim)},
				},
				{
					Name:     FieldSparse,
					DataType: entity.FieldTypeSparseVector,
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(name, schema)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}

		denseIdx := index.NewHNSWIndex(entity.IP, 16, 200)
		if _, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldDense, denseIdx)); err != nil {
			return fmt.Errorf("failed to create dense index on %s: %w", name, err)
		}

		sparseIdx := index.NewSparseInvertedIndex(entity.IP, 0.2)
		if _, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldSparse, sparseIdx)); err != nil {
			return fmt.Errorf("failed to create sparse index on %s: %w", name, err)
		}

		logger.Info("Created collection with dense and sparse indices: %s", name)
	}

	if _, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name)); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	return nil
}

// InsertChunk stores one chunk with its hybrid embedding.
func (s *MilvusStore) InsertChunk(ctx context.Context, namespace string, chunk core.Chunk, title string, meta map[string]interface{}, vec core.EmbeddingVector) error {
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["chunk_index"] = chunk.Index
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	sparse, err := sparseEmbedding(vec.Sparse)
	if err != nil {
		return fmt.Errorf("failed to build sparse embedding: %w", err)
	}

	docID := uuid.NewString()
	columns := []column.Column{
		column.NewColumnVarChar(FieldID, []string{docID}),
		column.NewColumnVarChar(FieldText, []string{chunk.Text}),
		column.NewColumnVarChar(FieldTitle, []string{title}),
		column.NewColumnJSONBytes(FieldMetadata, [][]byte{metaBytes}),
		column.NewColumnInt64(FieldCreatedAt, []int64{time.Now().Unix()}),
		column.NewColumnFloatVector(FieldDense, s.embeddingDim, [][]float32{vec.Dense}),
		column.NewColumnSparseVectors(FieldSparse, []entity.SparseEmbedding{sparse}),
	}

	if _, err := s.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(namespace, columns...)); err != nil {
		return fmt.Errorf("failed to insert chunk into %s: %w", namespace, err)
	}
	return nil
}

// VectorSearch runs the semantic channel over the dense index.
func (s *MilvusStore) VectorSearch(ctx context.Context, namespace string, dense []float32, k int) ([]core.RetrievalHit, error) {
	if k <= 0 {
		k = DefaultFusionLimit
	}
	opt := milvusclient.NewSearchOption(namespace, k, []entity.Vector{entity.FloatVector(dense)}).
		WithANNSField(FieldDense).
		WithOutputFields(FieldID, FieldText, FieldTitle, FieldMetadata)

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("vector search on %s failed: %w", namespace, err)
	}
	return s.parseHits(results, core.ChannelVector)
}

// KeywordSearch runs the lexical channel over the sparse inverted index.
func (s *MilvusStore) KeywordSearch(ctx context.Context, namespace string, sparse map[uint32]float32, k int) ([]core.RetrievalHit, error) {
	if k <= 0 {
		k = DefaultFusionLimit
	}
	emb, err := sparseEmbedding(sparse)
	if err != nil {
		return nil, fmt.Errorf("failed to build sparse query: %w", err)
	}
	opt := milvusclient.NewSearchOption(namespace, k, []entity.Vector{emb}).
		WithANNSField(FieldSparse).
		WithOutputFields(FieldID, FieldText, FieldTitle, FieldMetadata)

	results, err := s.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("keyword search on %s failed: %w", namespace, err)
	}
	return s.parseHits(results, core.ChannelKeyword)
}

// parseHits converts Milvus result sets into channel-tagged hits.
func (s *MilvusStore) parseHits(results []milvusclient.ResultSet, channel core.Channel) ([]core.RetrievalHit, error) {
	if len(results) == 0 {
		return nil, nil
	}
	rs := results[0]

	ids, ok := rs.IDs.(*column.ColumnVarChar)
	if !ok || rs.ResultCount == 0 {
		return nil, nil
	}

	texts, _ := rs.GetColumn(FieldText).(*column.ColumnVarChar)
	titles, _ := rs.GetColumn(FieldTitle).(*column.ColumnVarChar)
	metadataCol, _ := rs.GetColumn(FieldMetadata).(*column.ColumnJSONBytes)

	hits := make([]core.RetrievalHit, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		if i >= len(ids.Data()) {
			break
		}

		content := ""
		if texts != nil && i < len(texts.Data()) {
			content = texts.Data()[i]
		}

		meta := make(map[string]interface{})
		if metadataCol != nil && i < len(metadataCol.Data()) {
			if err := json.Unmarshal(metadataCol.Data()[i], &meta); err != nil {
				logger.Debug("unparseable metadata for hit %s: %v", ids.Data()[i], err)
			}
		}
		if titles != nil && i < len(titles.Data()) && titles.Data()[i] != "" {
			meta["title"] = titles.Data()[i]
		}

		score := float32(0)
		if i < len(rs.Scores) {
			score = rs.Scores[i]
		}

		hits = append(hits, core.RetrievalHit{
			ID:      ids.Data()[i],
			Content: content,
			Meta:    meta,
			Score:   score,
			Channel: channel,
		})
	}
	return hits, nil
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// sparseEmbedding converts the embed service's sparse map into a Milvus
// sparse embedding. Milvus requires sorted positions; the helper sorts.
func sparseEmbedding(weights map[uint32]float32) (entity.SparseEmbedding, error) {
	positions := make([]uint32, 0, len(weights))
	for p := range weights {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	values := make([]float32, len(positions))
	for i, p := range positions {
		values[i] = weights[p]
	}
	return entity.NewSliceSparseEmbedding(positions, values)
}
