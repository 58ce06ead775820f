package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sknshr/kakao-hr-bot/internal/core"
	"github.com/sknshr/kakao-hr-bot/internal/kakao"
	"github.com/sknshr/kakao-hr-bot/internal/logger"
)

// Pipeline is the orchestrator surface the HTTP layer depends on.
type Pipeline interface {
	Ask(ctx context.Context, question, userID string) (core.AnswerResult, error)
	Ingest(ctx context.Context, namespace, title, text string) (int, error)
}

// Server exposes the REST API and the Kakao skill webhook.
type Server struct {
	pipeline Pipeline
	adapter  *kakao.Adapter
	botName  string
	engine   *gin.Engine
}

// NewServer builds the gin engine and registers all routes.
func NewServer(pipeline Pipeline, botName string) *Server {
	s := &Server{
		pipeline: pipeline,
		adapter:  kakao.NewAdapter(pipeline),
		botName:  botName,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)
	engine.POST("/kakao/skill", s.handleKakaoSkill)

	api := engine.Group("/api")
	api.POST("/ingest", s.handleIngest)
	api.POST("/ask", s.handleAsk)

	s.engine = engine
	return s
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	logger.Info("HTTP server listening on %s", addr)
	return s.engine.Run(addr)
}

// Handler exposes the engine for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "name": s.botName})
}

type ingestRequest struct {
	Namespace string `json:"namespace"`
	Title     string `json:"title"`
	Text      string `json:"text"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Namespace == "" || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "namespace and text are required"})
		return
	}

	count, err := s.pipeline.Ingest(c.Request.Context(), req.Namespace, req.Title, req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrInvalidConfig) || errors.Is(err, core.ErrEmptyDocument) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chunkCount": count})
}

type askRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Question == "" || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and userId are required"})
		return
	}

	result, err := s.pipeline.Ask(c.Request.Context(), req.Question, req.UserID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answerText": result.Text})
}

// handleKakaoSkill always answers 200 with a skill envelope; failures are
// converted to the apology reply inside the adapter.
func (s *Server) handleKakaoSkill(c *gin.Context) {
	var req kakao.SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("unreadable kakao skill payload: %v", err)
		req = kakao.SkillRequest{}
	}
	c.JSON(http.StatusOK, s.adapter.Respond(c.Request.Context(), req))
}
