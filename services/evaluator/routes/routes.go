// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attestix/redline/pkg/extensions"
	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/handlers"
	"github.com/attestix/redline/services/evaluator/hybrid"
	"github.com/attestix/redline/services/evaluator/middleware"
)

// Deps carries the shared collaborators the route handlers close
// over.
type Deps struct {
	Provider      *engine.Provider
	Blender       *hybrid.Blender
	Generator     arena.Generator // nil disables the arena endpoints
	ArenaDefaults arena.Config
	AuthProvider  extensions.AuthProvider
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.AuthProvider))
	{
		v1.POST("/evaluate", handlers.HandleEvaluate(deps.Provider))
		v1.POST("/evaluate/hybrid", handlers.HandleHybridEvaluate(deps.Provider, deps.Blender))
		if deps.Generator != nil {
			v1.POST("/arena", handlers.HandleArena(deps.Provider, deps.Generator, deps.ArenaDefaults))
			v1.GET("/arena/ws", handlers.HandleArenaWebSocket(deps.Provider, deps.Generator, deps.ArenaDefaults))
		}
	}
}
