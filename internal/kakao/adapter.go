package kakao

import (
	"context"
	"strings"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// MaxMessageLen is the KakaoTalk simpleText length limit.
const MaxMessageLen = 1000

// apologyMessage replaces any failure. The skill endpoint must always
// return a well-formed conversational reply, never an error status.
const apologyMessage = "죄송해요, 지금은 답변을 드리기 어려워요. 잠시 후 다시 질문해 주세요."

// Asker is the pipeline contract the adapter depends on.
type Asker interface {
	Ask(ctx context.Context, question, userID string) (core.AnswerResult, error)
}

// SkillRequest is the Kakao i OpenBuilder skill payload, reduced to the
// fields the bot reads.
type SkillRequest struct {
	UserRequest struct {
		Utterance string `json:"utterance"`
		User      struct {
			ID string `json:"id"`
		} `json:"user"`
	} `json:"userRequest"`
}

// SkillResponse is the Kakao skill response envelope.
type SkillResponse struct {
	Version  string   `json:"version"`
	Template Template `json:"template"`
}

// Template holds the skill response outputs.
type Template struct {
	Outputs []Output `json:"outputs"`
}

// Output is one skill response component.
type Output struct {
	SimpleText SimpleText `json:"simpleText"`
}

// SimpleText is a plain text reply bubble.
type SimpleText struct {
	Text string `json:"text"`
}

// Adapter translates between the Kakao skill envelope and the pipeline.
type Adapter struct {
	asker Asker
}

// NewAdapter creates a Kakao skill adapter over the pipeline.
func NewAdapter(asker Asker) *Adapter {
	return &Adapter{asker: asker}
}

// Respond answers one skill request. It never fails: any pipeline error is
// swallowed and replaced with the fixed apology reply.
func (a *Adapter) Respond(ctx context.Context, req SkillRequest) SkillResponse {
	question := strings.TrimSpace(req.UserRequest.Utterance)
	userID := req.UserRequest.User.ID
	if question == "" || userID == "" {
		logger.Warn("kakao skill request missing utterance or user id")
		return textResponse(apologyMessage)
	}

	result, err := a.asker.Ask(ctx, question, userID)
	if err != nil {
		logger.Error("kakao skill pipeline failed for user %s: %v", userID, err)
		return textResponse(apologyMessage)
	}
	return textResponse(truncate(result.Text, MaxMessageLen))
}

func textResponse(text string) SkillResponse {
	return SkillResponse{
		Version: "2.0",
		Template: Template{
			Outputs: []Output{{SimpleText: SimpleText{Text: text}}},
		},
	}
}

// truncate shortens text to at most limit characters, rune-safe.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
