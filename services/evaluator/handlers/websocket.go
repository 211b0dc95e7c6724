// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file implements the websocket arena endpoint, streaming
// per-iteration progress to the client while the loop runs.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/datatypes"
	"github.com/attestix/redline/services/evaluator/engine"
	"github.com/attestix/redline/services/evaluator/observability"
)

// WSMessage is the envelope for all server-to-client frames.
type WSMessage struct {
	Action string `json:"action"` // run_started, iteration, run_complete, error

	RunID     string                 `json:"run_id,omitempty"`
	Iteration *arena.IterationRecord `json:"iteration,omitempty"`
	Result    *arena.Result          `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

// wsConn serializes writes; gorilla connections allow only one
// concurrent writer and the observer callback runs on the loop
// goroutine.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// HandleArenaWebSocket runs a refinement loop over a websocket.
//
// Protocol: the client sends one ArenaRequest frame. The server
// replies with {action:"run_started", run_id}, one
// {action:"iteration", iteration} frame per completed iteration, and
// finally {action:"run_complete", result}. Failures produce an
// {action:"error"} frame and close the connection.
func HandleArenaWebSocket(provider *engine.Provider, generator arena.Generator, defaults arena.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}
		defer ws.Close()
		conn := &wsConn{conn: ws}

		var req datatypes.ArenaRequest
		if err := ws.ReadJSON(&req); err != nil {
			conn.writeJSON(WSMessage{Action: "error", Error: "invalid request frame"})
			return
		}
		if req.Context == "" {
			conn.writeJSON(WSMessage{Action: "error", Error: "context is required"})
			return
		}
		runID, err := resolveRunID(req.RunID)
		if err != nil {
			conn.writeJSON(WSMessage{Action: "error", Error: err.Error()})
			return
		}

		orchestrator, err := arena.NewOrchestrator(generator, provider.Current(),
			arenaConfigFromRequest(req, defaults), slog.Default())
		if err != nil {
			conn.writeJSON(WSMessage{Action: "error", Error: err.Error()})
			return
		}

		started := false
		orchestrator.SetObserver(func(runID string, record arena.IterationRecord) {
			if !started {
				started = true
				if err := conn.writeJSON(WSMessage{Action: "run_started", RunID: runID}); err != nil {
					slog.Warn("websocket write failed", "error", err)
				}
			}
			if err := conn.writeJSON(WSMessage{Action: "iteration", Iteration: &record}); err != nil {
				slog.Warn("websocket write failed", "error", err)
			}
		})

		result, err := orchestrator.RunWithID(c.Request.Context(), runID, req.Context)
		if err != nil {
			reason := "internal"
			if errors.Is(err, arena.ErrGeneratorFailed) {
				reason = "generator_failed"
			}
			observability.RecordError("arena_ws", reason)
			observability.RecordArenaRun(reason, 0)
			conn.writeJSON(WSMessage{Action: "error", Error: err.Error()})
			return
		}

		observability.RecordArenaRun(result.TerminationReason, result.TotalIterations)
		if err := conn.writeJSON(WSMessage{Action: "run_complete", Result: result}); err != nil {
			slog.Warn("websocket write failed", "error", err)
		}
	}
}
