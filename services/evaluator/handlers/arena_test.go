// Copyright (C) 2025 Attestix Labs (eng@attestix.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attestix/redline/services/evaluator/arena"
	"github.com/attestix/redline/services/evaluator/datatypes"
)

// scriptedGenerator returns canned narratives in order, optionally
// failing on a given call number.
type scriptedGenerator struct {
	narratives []string
	failOn     int
	calls      int
}

func (g *scriptedGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	g.calls++
	if g.failOn != 0 && g.calls == g.failOn {
		return "", errors.New("backend unavailable")
	}
	idx := g.calls - 1
	if idx >= len(g.narratives) {
		idx = len(g.narratives) - 1
	}
	return g.narratives[idx], nil
}

// =============================================================================
// HandleArena Tests
// =============================================================================

func TestHandleArena_RefinesToTarget(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative, qualifyingNarrative}}

	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t), gen, arena.DefaultConfig()))

	w := postJSON(router, "/arena", datatypes.ArenaRequest{Context: "latency reduction project"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result arena.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalIterations)
	assert.Equal(t, arena.TerminationTargetReached, result.TerminationReason)
	assert.Equal(t, qualifyingNarrative, result.FinalNarrative)
	assert.NotEmpty(t, result.RunID)
}

func TestHandleArena_MaxIterationsExhausted(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative}}
	two := 2

	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t), gen, arena.DefaultConfig()))

	w := postJSON(router, "/arena", datatypes.ArenaRequest{
		Context:       "maintenance project",
		MaxIterations: &two,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var result arena.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.TotalIterations)
	assert.Equal(t, arena.TerminationMaxIterationsReached, result.TerminationReason)
}

func TestHandleArena_GeneratorFailureIs502(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative}, failOn: 1}

	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t), gen, arena.DefaultConfig()))

	w := postJSON(router, "/arena", datatypes.ArenaRequest{Context: "any project"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestHandleArena_ClientSuppliedRunID(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{qualifyingNarrative}}

	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t), gen, arena.DefaultConfig()))

	pinned := uuid.NewString()
	w := postJSON(router, "/arena", datatypes.ArenaRequest{
		Context: "latency reduction project",
		RunID:   pinned,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var result arena.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, pinned, result.RunID)
}

func TestHandleArena_RejectsMalformedRunID(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{qualifyingNarrative}}

	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t), gen, arena.DefaultConfig()))

	w := postJSON(router, "/arena", datatypes.ArenaRequest{
		Context: "any project",
		RunID:   "not-a-uuid",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "run id")
	assert.Zero(t, gen.calls)
}

func TestHandleArena_MissingContext(t *testing.T) {
	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t),
		&scriptedGenerator{narratives: []string{routineNarrative}}, arena.DefaultConfig()))

	w := postJSON(router, "/arena", map[string]any{"max_iterations": 3})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleArena_InvalidOverrides(t *testing.T) {
	router := gin.New()
	router.POST("/arena", HandleArena(newTestProvider(t),
		&scriptedGenerator{narratives: []string{routineNarrative}}, arena.DefaultConfig()))

	zero := 0
	w := postJSON(router, "/arena", datatypes.ArenaRequest{
		Context:       "any project",
		MaxIterations: &zero,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// HandleArenaWebSocket Tests
// =============================================================================

func dialArenaWS(t *testing.T, gen arena.Generator) (*websocket.Conn, func()) {
	t.Helper()
	router := gin.New()
	router.GET("/arena/ws", HandleArenaWebSocket(newTestProvider(t), gen, arena.DefaultConfig()))

	server := httptest.NewServer(router)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/arena/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func TestHandleArenaWebSocket_StreamsIterations(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative, qualifyingNarrative}}
	conn, cleanup := dialArenaWS(t, gen)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(datatypes.ArenaRequest{Context: "latency reduction project"}))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run_started", msg.Action)
	assert.NotEmpty(t, msg.RunID)
	runID := msg.RunID

	for i := 1; i <= 2; i++ {
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "iteration", msg.Action)
		require.NotNil(t, msg.Iteration)
		assert.Equal(t, i, msg.Iteration.IterationNumber)
	}

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "run_complete", msg.Action)
	require.NotNil(t, msg.Result)
	assert.True(t, msg.Result.Success)
	assert.Equal(t, runID, msg.Result.RunID)
}

func TestHandleArenaWebSocket_MissingContext(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative}}
	conn, cleanup := dialArenaWS(t, gen)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(datatypes.ArenaRequest{}))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Action)
	assert.Contains(t, msg.Error, "context")
}

func TestHandleArenaWebSocket_GeneratorFailure(t *testing.T) {
	gen := &scriptedGenerator{narratives: []string{routineNarrative}, failOn: 1}
	conn, cleanup := dialArenaWS(t, gen)
	defer cleanup()

	require.NoError(t, conn.WriteJSON(datatypes.ArenaRequest{Context: "any project"}))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Action)
	assert.NotEmpty(t, msg.Error)
}
