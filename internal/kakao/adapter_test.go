package kakao

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

type fakeAsker struct {
	answer   string
	err      error
	question string
	userID   string
}

func (f *fakeAsker) Ask(ctx context.Context, question, userID string) (core.AnswerResult, error) {
	f.question = question
	f.userID = userID
	if f.err != nil {
		return core.AnswerResult{}, f.err
	}
	return core.AnswerResult{Text: f.answer}, nil
}

func skillRequest(utterance, userID string) SkillRequest {
	var req SkillRequest
	req.UserRequest.Utterance = utterance
	req.UserRequest.User.ID = userID
	return req
}

func TestRespondMapsEnvelope(t *testing.T) {
	asker := &fakeAsker{answer: "연차는 15일입니다\n\n출처: [1]취업규칙:0"}
	a := NewAdapter(asker)

	resp := a.Respond(context.Background(), skillRequest("연차가 며칠인가요?", "kakao-user-9"))

	assert.Equal(t, "연차가 며칠인가요?", asker.question)
	assert.Equal(t, "kakao-user-9", asker.userID)
	assert.Equal(t, "2.0", resp.Version)
	require.Len(t, resp.Template.Outputs, 1)
	assert.Equal(t, asker.answer, resp.Template.Outputs[0].SimpleText.Text)
}

func TestRespondTruncatesLongAnswers(t *testing.T) {
	asker := &fakeAsker{answer: strings.Repeat("가", 1500)}
	a := NewAdapter(asker)

	resp := a.Respond(context.Background(), skillRequest("질문", "u"))

	got := resp.Template.Outputs[0].SimpleText.Text
	assert.Len(t, []rune(got), MaxMessageLen)
}

func TestRespondSwallowsPipelineErrors(t *testing.T) {
	a := NewAdapter(&fakeAsker{err: errors.New("generation failed")})

	resp := a.Respond(context.Background(), skillRequest("질문", "u"))

	require.Len(t, resp.Template.Outputs, 1)
	assert.Equal(t, apologyMessage, resp.Template.Outputs[0].SimpleText.Text)
}

func TestRespondMissingFields(t *testing.T) {
	a := NewAdapter(&fakeAsker{answer: "무시됨"})

	resp := a.Respond(context.Background(), skillRequest("", "u"))
	assert.Equal(t, apologyMessage, resp.Template.Outputs[0].SimpleText.Text)

	resp = a.Respond(context.Background(), skillRequest("질문", ""))
	assert.Equal(t, apologyMessage, resp.Template.Outputs[0].SimpleText.Text)
}
