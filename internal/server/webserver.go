// Package server exposes the analysis pipeline and chat service over HTTP.
// Routing and CORS only; all behavior lives in the packages it wires.
package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/datasleuth/server/internal/core"
)

// New builds the HTTP engine with middleware and routes attached.
func New(env core.Environment, deps Dependencies) *gin.Engine {
	if env == core.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	g.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", HeaderSessionID},
		ExposeHeaders: []string{"Content-Length", HeaderSessionID},
	}))

	attachRoutes(g, deps)
	return g
}
