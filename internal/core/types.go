package core

import "fmt"

// Channel identifies which retrieval method produced a hit.
type Channel string

const (
	ChannelVector  Channel = "vector"
	ChannelKeyword Channel = "keyword"
)

// Agent is a named retrieval domain the router may select for a question.
// The set is closed; anything else coming back from the classifier is
// treated as a routing failure.
type Agent string

const (
	AgentPDF       Agent = "pdf"
	AgentLaw       Agent = "law"
	AgentFactCheck Agent = "factcheck"
)

// AllAgents is the fail-open default: consult everything.
func AllAgents() []Agent {
	return []Agent{AgentPDF, AgentLaw, AgentFactCheck}
}

// ParseAgent validates a classifier-emitted agent name.
func ParseAgent(s string) (Agent, error) {
	switch Agent(s) {
	case AgentPDF:
		return AgentPDF, nil
	case AgentLaw:
		return AgentLaw, nil
	case AgentFactCheck:
		return AgentFactCheck, nil
	default:
		return "", fmt.Errorf("unknown agent %q", s)
	}
}

// RouteDecision is the set of agents to consult for one question.
type RouteDecision struct {
	Agents map[Agent]bool
}

// Has reports whether an agent was selected.
func (d RouteDecision) Has(a Agent) bool {
	return d.Agents[a]
}

// Chunk is a contiguous slice of a source document.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// RetrievalHit is one candidate result from one retrieval channel. Score is
// channel-local: dense similarity and sparse rank are not on the same scale.
type RetrievalHit struct {
	ID      string                 `json:"id"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Score   float32                `json:"score"`
	Channel Channel                `json:"channel"`
}

// MemoryEntry is one turn of conversational history.
type MemoryEntry struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// EmbeddingVector holds the hybrid embedding for one text: a dense vector
// and a sparse lexical-weight map (BGE-M3 style).
type EmbeddingVector struct {
	Dense  []float32          `json:"dense"`
	Sparse map[uint32]float32 `json:"sparse,omitempty"`
}

// AnswerResult is the pipeline's final output.
type AnswerResult struct {
	Text        string         `json:"text"`
	UsedContext []RetrievalHit `json:"used_context,omitempty"`
}
