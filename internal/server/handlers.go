package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datasleuth/server/internal/analysis/model"
	errx "github.com/datasleuth/server/internal/core/error"
	"github.com/datasleuth/server/internal/session"
)

// HeaderSessionID carries the session token. Optional on analyze, where a
// missing header mints a fresh session; required everywhere else.
const HeaderSessionID = "X-Session-ID"

type Handlers struct {
	deps Dependencies
}

// POST /api/analyze
func (h Handlers) Analyze(c *gin.Context) {
	var req struct {
		Records []model.Record `json:"records" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errx.Input("request body must contain a records array"))
		return
	}

	sessionID := c.GetHeader(HeaderSessionID)
	if sessionID == "" {
		sessionID = session.NewSessionID()
	}

	result, err := h.deps.Runner.Run(c.Request.Context(), req.Records, sessionID, model.StageOverrides{})
	if err != nil {
		renderError(c, err)
		return
	}

	c.Header(HeaderSessionID, sessionID)
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "result": result})
}

// GET /api/analyze/status
// With ?stream=1 the response switches to server-sent events and follows
// status transitions until the pipeline reaches a terminal state.
func (h Handlers) Status(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	if c.Query("stream") == "1" {
		h.streamStatus(c, sessionID)
		return
	}

	status, err := h.deps.Store.GetAgentStatus(c.Request.Context(), sessionID)
	if err != nil {
		renderError(c, err)
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": errx.CodeState, "error": "no status recorded for this session"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h Handlers) streamStatus(c *gin.Context, sessionID string) {
	feed, cancel := h.deps.Streamer.Subscribe(sessionID)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case status, open := <-feed:
			if !open {
				return
			}
			c.SSEvent("status", status)
			c.Writer.Flush()
			if status.Agent == model.AgentPipeline &&
				(status.Status == model.StatusCompleted || status.Status == model.StatusError) {
				return
			}
		}
	}
}

// POST /api/ask
func (h Handlers) Ask(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, errx.Input("request body must contain a question"))
		return
	}

	answer, err := h.deps.Asker.Ask(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// GET /api/existing-analysis
func (h Handlers) ExistingAnalysis(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	state, err := h.deps.Store.GetAnalysisState(c.Request.Context(), sessionID)
	if err != nil {
		renderError(c, err)
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": errx.CodeState, "error": "no analysis exists for this session"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// DELETE /api/session
func (h Handlers) ClearSession(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	if err := h.deps.Store.ClearSession(c.Request.Context(), sessionID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func requireSession(c *gin.Context) (string, bool) {
	sessionID := c.GetHeader(HeaderSessionID)
	if sessionID == "" {
		renderError(c, errx.Input("missing "+HeaderSessionID+" header"))
		return "", false
	}
	if err := session.ValidateSessionID(sessionID); err != nil {
		renderError(c, err)
		return "", false
	}
	return sessionID, true
}

// renderError maps an error to its HTTP status and stable code. Only the
// safe message is exposed; the wrapped cause never leaves the process.
func renderError(c *gin.Context, err error) {
	c.JSON(errx.StatusOf(err), gin.H{
		"code":  errx.CodeOf(err),
		"error": errx.MessageOf(err),
	})
}
