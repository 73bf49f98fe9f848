package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/datasleuth/server/internal/analysis/model"
	"github.com/datasleuth/server/internal/session"
)

// Runner executes one analysis pipeline pass. Satisfied by
// pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, records []model.Record, sessionID string, overrides model.StageOverrides) (*model.AnalysisResult, error)
}

// Asker answers a question against a session's analysis. Satisfied by
// chat.Service.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string) (string, error)
}

// StatusStreamer provides a live feed of status transitions for one session.
// Satisfied by pipeline.StatusPublisher.
type StatusStreamer interface {
	Subscribe(sessionID string) (<-chan model.AgentStatus, func())
}

// Dependencies are the collaborators the HTTP surface delegates to.
type Dependencies struct {
	Store    session.Store
	Runner   Runner
	Asker    Asker
	Streamer StatusStreamer
}

func attachRoutes(r *gin.Engine, deps Dependencies) {
	h := Handlers{deps: deps}

	api := r.Group("/api")
	{
		api.POST("/analyze", h.Analyze)
		api.GET("/analyze/status", h.Status)
		api.POST("/ask", h.Ask)
		api.GET("/existing-analysis", h.ExistingAnalysis)
		api.DELETE("/session", h.ClearSession)
	}
}
