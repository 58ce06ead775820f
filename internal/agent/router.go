package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/llm"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// Router classifies a question into the set of retrieval agents to consult.
// Classification is delegated to the LLM; any failure falls open to all
// agents so routing can never block the pipeline.
type Router struct {
	llm core.LLMService
}

// NewRouter creates a router backed by the given LLM service.
func NewRouter(svc core.LLMService) *Router {
	return &Router{llm: svc}
}

type routeReply struct {
	Agents []string `json:"agents"`
}

// Route returns the agents to consult for the question.
func (r *Router) Route(ctx context.Context, question string) core.RouteDecision {
	reply, err := r.llm.Complete(ctx, llm.RouterSystemPrompt, question, 0)
	if err != nil {
		logger.Warn("router classification call failed, selecting all agents: %v", err)
		return failOpen()
	}

	var parsed routeReply
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		logger.Warn("router output is not valid JSON (%q), selecting all agents", truncate(reply, 120))
		return failOpen()
	}

	agents := make(map[core.Agent]bool, len(parsed.Agents))
	for _, name := range parsed.Agents {
		a, err := core.ParseAgent(strings.TrimSpace(name))
		if err != nil {
			// An unrecognized agent means the classifier went off
			// script; fall back rather than silently drop it.
			logger.Warn("router emitted %v, selecting all agents", err)
			return failOpen()
		}
		agents[a] = true
	}

	logger.Debug("routed question to agents: %v", parsed.Agents)
	return core.RouteDecision{Agents: agents}
}

func failOpen() core.RouteDecision {
	agents := make(map[core.Agent]bool)
	for _, a := range core.AllAgents() {
		agents[a] = true
	}
	return core.RouteDecision{Agents: agents}
}

// stripCodeFence removes a markdown code fence the model may wrap around
// its JSON despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
