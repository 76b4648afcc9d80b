package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"vortkvizo/internal/engine"
	"vortkvizo/internal/ladder"
	"vortkvizo/internal/session"
	"vortkvizo/internal/store"
)

// homeHandler describes the API surface and the available modes.
func (app *App) homeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":  "Vortkvizo",
		"modes": []session.Mode{session.ModeProgressive, session.ModeEndless, session.ModeDuel, session.ModePractice},
		"routes": []string{
			RouteLadder, RouteProfile, RouteSessionStart, RouteSessionAnswer,
			RouteSessionPause, RouteSessionResume, RouteSessionMenu,
			RouteSessionState, RouteSessionWS, RouteHealth,
		},
	})
}

// ladderHandler exposes the difficulty ladder for menu rendering.
func (app *App) ladderHandler(c *gin.Context) {
	tiers := lo.Map(ladder.All(), func(t ladder.Tier, _ int) gin.H {
		return gin.H{
			"id":                t.ID,
			"wordLength":        t.WordLength,
			"timeBudgetSeconds": int(t.TimeBudget / time.Second),
			"basePoints":        t.BasePoints,
			"index":             t.Index,
		}
	})
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}

// startSessionHandler selects a mode and begins a session.
func (app *App) startSessionHandler(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorBadRequest})
		return
	}

	sessionID := app.getOrCreateSession(c)
	ctrl := app.getController(sessionID)

	err := ctrl.Start(session.Mode(req.Mode), session.StartOptions{
		Difficulty: engine.Difficulty(req.Difficulty),
		TierID:     req.Tier,
		Resume:     req.Resume,
	})
	switch {
	case errors.Is(err, session.ErrUnknownMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorUnknownMode})
		return
	case errors.Is(err, session.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": ErrorSessionActive})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// answerHandler submits the player's pick for the live challenge.
// Duplicate or out-of-turn submissions are no-ops by design, so the
// response is simply the resulting state.
func (app *App) answerHandler(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorBadRequest})
		return
	}

	ctrl, ok := app.activeController(c)
	if !ok {
		return
	}
	ctrl.SubmitAnswer(req.Answer)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// pauseHandler freezes the session timer.
func (app *App) pauseHandler(c *gin.Context) {
	ctrl, ok := app.activeController(c)
	if !ok {
		return
	}
	ctrl.Pause()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// resumeHandler unfreezes a paused session.
func (app *App) resumeHandler(c *gin.Context) {
	ctrl, ok := app.activeController(c)
	if !ok {
		return
	}
	ctrl.Resume()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// menuHandler ends the session and returns to the mode menu.
func (app *App) menuHandler(c *gin.Context) {
	ctrl, ok := app.activeController(c)
	if !ok {
		return
	}
	ctrl.ReturnToMenu()
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// stateHandler returns the current session snapshot.
func (app *App) stateHandler(c *gin.Context) {
	sessionID := app.getOrCreateSession(c)
	ctrl := app.getController(sessionID)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// wsHandler attaches the client to the presentation event stream.
func (app *App) wsHandler(c *gin.Context) {
	sessionID := app.getOrCreateSession(c)
	app.getController(sessionID) // make sure the session exists before streaming
	app.Hub.Serve(c.Writer, c.Request, sessionID)
}

// profileHandler reads the durable bits: lifetime wallet and endless
// high score. Store failures degrade to zeros; persistence is
// best-effort.
func (app *App) profileHandler(c *gin.Context) {
	var resp profileResponse
	if app.Store != nil {
		if err := app.Store.Load(store.KeyWallet, &resp.Wallet); err != nil && !errors.Is(err, store.ErrNotFound) {
			logWarn("Loading wallet failed: %v", err)
		}
		if err := app.Store.Load(store.KeyEndlessHighScore, &resp.EndlessHighScore); err != nil && !errors.Is(err, store.ErrNotFound) {
			logWarn("Loading high score failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// activeController fetches the caller's controller, rejecting requests
// with no session in progress.
func (app *App) activeController(c *gin.Context) (*session.Controller, bool) {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorNoSession})
		return nil, false
	}

	app.SessionMutex.RLock()
	entry, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrorNoSession})
		return nil, false
	}

	app.SessionMutex.Lock()
	entry.LastAccess = time.Now()
	app.SessionMutex.Unlock()
	return entry.Controller, true
}

// healthHandler reports process health and basic stats.
func (app *App) healthHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	app.SessionMutex.RLock()
	sessions := len(app.Sessions)
	app.SessionMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"env":       map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"sessions":  sessions,
		"tiers":     ladder.Count(),
		"uptime":    formatUptime(uptime),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
