package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vortkvizo/internal/pipeline"
	"vortkvizo/internal/session"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// getController returns the session's controller, creating one on first
// contact. Each session gets its own challenge pipeline so the prefetch
// queue and de-duplication stay per-player.
func (app *App) getController(sessionID string) *session.Controller {
	app.SessionMutex.RLock()
	entry, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		app.SessionMutex.Lock()
		entry.LastAccess = time.Now()
		app.SessionMutex.Unlock()
		return entry.Controller
	}

	pipe := pipeline.New(app.Supplier, app.Corpus)
	ctrl := session.New(sessionID, app.SessionCfg, pipe, app.Store, app.Hub)

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if entry, exists := app.Sessions[sessionID]; exists {
		entry.LastAccess = time.Now()
		return entry.Controller
	}
	app.Sessions[sessionID] = &sessionEntry{Controller: ctrl, LastAccess: time.Now()}
	logInfo("Created controller for session: %s", sessionID)
	return ctrl
}

// pruneSessions drops controllers idle longer than maxAge. Pruned
// sessions are sent back to the menu first so earned coins settle.
func (app *App) pruneSessions(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	app.SessionMutex.Lock()
	var stale []*sessionEntry
	for id, entry := range app.Sessions {
		if entry.LastAccess.Before(cutoff) {
			stale = append(stale, entry)
			delete(app.Sessions, id)
			logInfo("Pruned idle session: %s", id)
		}
	}
	app.SessionMutex.Unlock()

	for _, entry := range stale {
		entry.Controller.ReturnToMenu()
	}
}

// startSessionJanitor prunes idle sessions on a fixed cadence.
func (app *App) startSessionJanitor(maxAge, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			app.pruneSessions(maxAge)
		}
	}()
}
