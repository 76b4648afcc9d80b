package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome          = "/"
	RouteLadder        = "/ladder"
	RouteProfile       = "/profile"
	RouteSessionStart  = "/session"
	RouteSessionAnswer = "/session/answer"
	RouteSessionPause  = "/session/pause"
	RouteSessionResume = "/session/resume"
	RouteSessionMenu   = "/session/menu"
	RouteSessionState  = "/session/state"
	RouteSessionWS     = "/session/ws"
	RouteHealth        = "/healthz"
)

// Error message constants
const (
	ErrorBadRequest    = "Malformed request body."
	ErrorUnknownMode   = "Unknown game mode."
	ErrorSessionActive = "A game is already in progress."
	ErrorNoSession     = "No active game session."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
