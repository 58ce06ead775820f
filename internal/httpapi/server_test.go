package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sknshr/kakao-hr-bot/internal/core"
)

type fakePipeline struct {
	askErr    error
	ingestErr error
	answer    string
	chunks    int
}

func (f *fakePipeline) Ask(ctx context.Context, question, userID string) (core.AnswerResult, error) {
	if f.askErr != nil {
		return core.AnswerResult{}, f.askErr
	}
	return core.AnswerResult{Text: f.answer}, nil
}

func (f *fakePipeline) Ingest(ctx context.Context, namespace, title, text string) (int, error) {
	if f.ingestErr != nil {
		return 0, f.ingestErr
	}
	return f.chunks, nil
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := NewServer(&fakePipeline{}, "kakao-hr-bot")

	w := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "kakao-hr-bot", body["name"])
}

func TestAskSuccess(t *testing.T) {
	srv := NewServer(&fakePipeline{answer: "답변입니다"}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/api/ask", `{"question":"연차?","userId":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "답변입니다", body["answerText"])
}

func TestAskMissingFields(t *testing.T) {
	srv := NewServer(&fakePipeline{answer: "x"}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/api/ask", `{"question":"연차?"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskPipelineFailure(t *testing.T) {
	srv := NewServer(&fakePipeline{askErr: errors.New("llm down")}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/api/ask", `{"question":"q","userId":"u"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "llm down")
}

func TestIngestSuccess(t *testing.T) {
	srv := NewServer(&fakePipeline{chunks: 3}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/api/ingest", `{"namespace":"pdf_docs","title":"취업규칙","text":"본문"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body["chunkCount"])
}

func TestIngestInvalidNamespaceIsClientError(t *testing.T) {
	srv := NewServer(&fakePipeline{ingestErr: core.ErrInvalidConfig}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/api/ingest", `{"namespace":"nope","text":"본문"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKakaoSkillSuccess(t *testing.T) {
	srv := NewServer(&fakePipeline{answer: "연차는 15일입니다"}, "bot")

	payload := `{"userRequest":{"utterance":"연차가 며칠인가요?","user":{"id":"kakao-1"}}}`
	w := doRequest(t, srv, http.MethodPost, "/kakao/skill", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Version  string `json:"version"`
		Template struct {
			Outputs []struct {
				SimpleText struct {
					Text string `json:"text"`
				} `json:"simpleText"`
			} `json:"outputs"`
		} `json:"template"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.Version)
	require.Len(t, resp.Template.Outputs, 1)
	assert.Equal(t, "연차는 15일입니다", resp.Template.Outputs[0].SimpleText.Text)
}

func TestKakaoSkillNeverReturnsErrorStatus(t *testing.T) {
	srv := NewServer(&fakePipeline{askErr: errors.New("boom")}, "bot")

	payload := `{"userRequest":{"utterance":"질문","user":{"id":"kakao-1"}}}`
	w := doRequest(t, srv, http.MethodPost, "/kakao/skill", payload)

	// Failures still answer 200 with a conversational apology.
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "죄송해요")
}

func TestKakaoSkillGarbagePayload(t *testing.T) {
	srv := NewServer(&fakePipeline{answer: "x"}, "bot")

	w := doRequest(t, srv, http.MethodPost, "/kakao/skill", "not json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "죄송해요")
}
