package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sknshr/kakao-hr-bot/internal/agent"
	"github.com/sknshr/kakao-hr-bot/internal/chunk"
	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/llm"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
	"github.com/sknshr/kakao-hr-bot/internal/memory"
	"github.com/sknshr/kakao-hr-bot/internal/rag"
)

// citationLabel prefixes the source list appended to every answer.
const citationLabel = "출처:"

// retrievalAgents maps retrieval agents to their store namespaces.
// factcheck is deliberately absent: it gates verification, not retrieval.
var retrievalAgents = map[core.Agent]string{
	core.AgentPDF: rag.PDFCollection,
	core.AgentLaw: rag.LawCollection,
}

// Orchestrator runs the full question-answering pipeline:
// load-memory → route → retrieve-per-agent → generate → verify → citations.
type Orchestrator struct {
	router    *agent.Router
	retriever *rag.Retriever
	llm       core.LLMService
	embed     core.EmbedService
	store     core.DocStore
	memory    core.MemoryStore

	// HistoryWindow is how many memory entries enrich the question.
	HistoryWindow int
	// ChunkSize and ChunkOverlap control document ingestion.
	ChunkSize    int
	ChunkOverlap int
}

// New wires an orchestrator from its collaborators.
func New(llmSvc core.LLMService, embedSvc core.EmbedService, store core.DocStore, mem core.MemoryStore) *Orchestrator {
	return &Orchestrator{
		router:        agent.NewRouter(llmSvc),
		retriever:     rag.NewRetriever(embedSvc, store),
		llm:           llmSvc,
		embed:         embedSvc,
		store:         store,
		memory:        mem,
		HistoryWindow: memory.DefaultHistoryWindow,
		ChunkSize:     chunk.DefaultSize,
		ChunkOverlap:  chunk.DefaultOverlap,
	}
}

// Ask answers one question for one user. Retrieval-channel failures degrade
// to empty context; a failing generation or verification call fails the
// request.
func (o *Orchestrator) Ask(ctx context.Context, question, userID string) (core.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return core.AnswerResult{}, fmt.Errorf("%w: question is required", core.ErrInvalidConfig)
	}

	// History is read before the question is saved, so the new question
	// never shows up in its own transcript.
	history, err := o.memory.GetRecent(ctx, userID, o.HistoryWindow)
	if err != nil {
		logger.Warn("memory read failed for user %s, continuing without history: %v", userID, err)
		history = nil
	}
	if err := o.memory.Append(ctx, userID, "user", question); err != nil {
		logger.Warn("failed to save question for user %s: %v", userID, err)
	}

	enriched := llm.EnrichQuestion(question, history)

	decision := o.router.Route(ctx, enriched)

	evidence := o.retrieveAll(ctx, decision, enriched)

	draft, err := o.llm.Complete(ctx, llm.AnswerSystemPrompt, llm.AnswerUserPrompt(enriched, evidence), 0.3)
	if err != nil {
		return core.AnswerResult{}, fmt.Errorf("answer generation failed: %w", err)
	}

	final := draft
	if decision.Has(core.AgentFactCheck) {
		verified, err := o.llm.Complete(ctx, llm.VerifySystemPrompt, llm.VerifyUserPrompt(enriched, draft, evidence), 0)
		if err != nil {
			return core.AnswerResult{}, fmt.Errorf("fact-check verification failed: %w", err)
		}
		final = verified
	}

	text := final
	if citations := BuildCitations(evidence); citations != "" {
		text = final + "\n\n" + citationLabel + " " + citations
	}
	text = strings.TrimSpace(text)

	if err := o.memory.Append(ctx, userID, "assistant", text); err != nil {
		logger.Warn("failed to save answer for user %s: %v", userID, err)
	}

	return core.AnswerResult{Text: text, UsedContext: evidence}, nil
}

// retrieveAll fans out to the selected retrieval agents concurrently and
// joins all results. Unselected namespaces contribute nothing; a failing
// agent contributes an empty context instead of failing the request.
func (o *Orchestrator) retrieveAll(ctx context.Context, decision core.RouteDecision, question string) []core.RetrievalHit {
	type agentContext struct {
		agent core.Agent
		hits  []core.RetrievalHit
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []agentContext
	)
	for a, namespace := range retrievalAgents {
		if !decision.Has(a) {
			continue
		}
		wg.Add(1)
		go func(a core.Agent, namespace string) {
			defer wg.Done()
			hits := o.retriever.Retrieve(ctx, namespace, question)
			mu.Lock()
			results = append(results, agentContext{agent: a, hits: hits})
			mu.Unlock()
		}(a, namespace)
	}
	wg.Wait()

	// Keep a deterministic agent order in the combined context regardless
	// of goroutine completion order.
	var combined []core.RetrievalHit
	for _, a := range core.AllAgents() {
		for _, r := range results {
			if r.agent == a {
				combined = append(combined, r.hits...)
			}
		}
	}
	return combined
}

// Ingest chunks a document, embeds every chunk, and stores the chunks in
// the namespace. Returns the number of chunks created.
func (o *Orchestrator) Ingest(ctx context.Context, namespace, title, text string) (int, error) {
	if !validNamespace(namespace) {
		return 0, fmt.Errorf("%w: unknown namespace %q", core.ErrInvalidConfig, namespace)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: %q", core.ErrEmptyDocument, title)
	}

	chunks, err := chunk.Split(text, o.ChunkSize, o.ChunkOverlap)
	if err != nil {
		return 0, err
	}

	for _, c := range chunks {
		vec, err := o.embed.EmbedQuery(ctx, c.Text)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %q: %w", c.Index, title, err)
		}
		meta := map[string]interface{}{"source": title}
		if err := o.store.InsertChunk(ctx, namespace, c, title, meta, vec); err != nil {
			return 0, fmt.Errorf("failed to store chunk %d of %q: %w", c.Index, title, err)
		}
	}

	logger.Info("ingested %q into %s as %d chunks", title, namespace, len(chunks))
	return len(chunks), nil
}

func validNamespace(namespace string) bool {
	for _, ns := range rag.Namespaces() {
		if ns == namespace {
			return true
		}
	}
	return false
}
