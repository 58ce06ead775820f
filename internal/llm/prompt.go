package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

// System instructions for the three generation calls of the pipeline.
const (
	// RouterSystemPrompt asks for a strict JSON classification of the
	// question into retrieval agents.
	RouterSystemPrompt = `You are a routing classifier for an HR assistant.
Given an employee question, decide which knowledge agents should be consulted:
- "pdf": internal company policy documents (rules of employment, benefits, onboarding)
- "law": Korean labor law (근로기준법) and related statutes
- "factcheck": enable an extra verification pass for claims that must be accurate

Respond with ONLY a JSON object of the form {"agents": ["pdf", "law"]}.
Select zero or more agents. No prose, no code fences.`

	// AnswerSystemPrompt constrains the generator to the supplied context.
	AnswerSystemPrompt = `You are an HR assistant for a Korean company, answering on KakaoTalk.
Answer ONLY from the numbered context excerpts provided. If the context does
not contain the answer, say that you could not find supporting material and
suggest contacting the HR team. Do not invent policies or legal claims.
Cite the numbered sources inline like [1] or [2]. Answer in Korean, concisely.`

	// VerifySystemPrompt drives the fact-check pass over a draft answer.
	VerifySystemPrompt = `You are a fact-check reviewer for an HR assistant.
Compare the draft answer against the numbered context excerpts. If the draft
contradicts the context, return a corrected answer grounded in the context.
If the draft is consistent, return it unchanged. If the context is
insufficient to decide, keep the answer but state the uncertainty plainly.
Return only the final answer text, in Korean.`
)

// RenderContext formats hits as an ordered, numbered list of excerpts.
func RenderContext(hits []core.RetrievalHit) string {
	if len(hits) == 0 {
		return "(관련 문서를 찾지 못했습니다)"
	}
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, h.Content)
	}
	return sb.String()
}

// RenderMemory formats recent history (given newest-first) as a
// chronological transcript block, oldest turn first.
func RenderMemory(entries []core.MemoryEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("이전 대화:\n")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		label := "사용자"
		if e.Role == "assistant" {
			label = "상담봇"
		}
		ts := ""
		if e.Timestamp > 0 {
			ts = time.Unix(e.Timestamp, 0).Format("01-02 15:04") + " "
		}
		fmt.Fprintf(&sb, "%s%s: %s\n", ts, label, e.Content)
	}
	return sb.String()
}

// EnrichQuestion prepends the rendered history to the raw question. The
// enriched form is what every downstream stage sees.
func EnrichQuestion(question string, history []core.MemoryEntry) string {
	transcript := RenderMemory(history)
	if transcript == "" {
		return question
	}
	return transcript + "\n질문: " + question
}

// AnswerUserPrompt builds the generation prompt from context and question.
func AnswerUserPrompt(question string, hits []core.RetrievalHit) string {
	return fmt.Sprintf("참고 문서:\n%s\n질문: %s", RenderContext(hits), question)
}

// VerifyUserPrompt builds the fact-check prompt from draft, context and
// question.
func VerifyUserPrompt(question, draft string, hits []core.RetrievalHit) string {
	return fmt.Sprintf("참고 문서:\n%s\n질문: %s\n\n검토할 답변 초안:\n%s",
		RenderContext(hits), question, draft)
}
