package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"vortkvizo/internal/challenge"
	"vortkvizo/internal/hub"
	"vortkvizo/internal/session"
	"vortkvizo/internal/store"
)

// App holds all shared server state and configuration.
type App struct {
	IsProduction bool
	Language     string
	CookieMaxAge time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	Corpus     *challenge.Corpus
	Supplier   challenge.Supplier
	Store      *store.Store // nil when the store failed to open
	Hub        *hub.Hub
	SessionCfg session.Config

	Sessions     map[string]*sessionEntry
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	StartTime time.Time
}

// sessionEntry pairs a controller with its last-touch time for pruning.
type sessionEntry struct {
	Controller *session.Controller
	LastAccess time.Time
}

// startRequest is the POST /session body.
type startRequest struct {
	Mode       string `json:"mode" binding:"required"`
	Difficulty string `json:"difficulty"`
	Tier       string `json:"tier"`
	Resume     bool   `json:"resume"`
}

// answerRequest is the POST /session/answer body.
type answerRequest struct {
	Answer string `json:"answer"`
}

// profileResponse is the GET /profile body.
type profileResponse struct {
	Wallet           int `json:"wallet"`
	EndlessHighScore int `json:"endlessHighScore"`
}

// contextKey types request-context keys.
type contextKey string
