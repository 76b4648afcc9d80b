package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"vortkvizo/internal/challenge"
	"vortkvizo/internal/hub"
	"vortkvizo/internal/session"
	"vortkvizo/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logInfo("No .env file found, using environment variables")
	}

	isProd := os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production"
	if isProd {
		gin.SetMode(gin.ReleaseMode)
	}

	corpusPath := getEnvString("CORPUS_PATH", "data/corpus.json")
	corpus, err := challenge.LoadCorpus(corpusPath)
	if err != nil {
		logFatal("Failed to load corpus from %s: %v", corpusPath, err)
	}
	logInfo("Loaded corpus: %d entries from %s", corpus.Size(), corpusPath)

	dbPath := getEnvString("DB_PATH", "data/game.db")
	stor, err := store.Open(dbPath)
	if err != nil {
		logWarn("Persistence store unavailable, progress will not survive restarts: %v", err)
		stor = nil
	}

	app := &App{
		IsProduction: isProd,
		Language:     getEnvString("CORPUS_LANGUAGE", "en"),
		CookieMaxAge: getEnvDuration("COOKIE_MAX_AGE", 24*time.Hour),

		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		Corpus:   corpus,
		Supplier: challenge.NewHTTPSupplier(getEnvString("WORD_API_URL", "https://random-word-api.herokuapp.com/word")),
		Store:    stor,
		Hub:      hub.New(),
		SessionCfg: session.Config{
			Language:        getEnvString("CORPUS_LANGUAGE", "en"),
			MultiplierLevel: getEnvInt("SCORE_MULTIPLIER_LEVEL", 0),
			DwellDelay:      getEnvDuration("DWELL_DELAY", session.DefaultDwellDelay),
			TickInterval:    getEnvDuration("TICK_INTERVAL", time.Second),
			CountdownTicks:  getEnvInt("COUNTDOWN_TICKS", session.DefaultCountdown),
			EndlessTime:     getEnvInt("ENDLESS_TIME_SECONDS", session.DefaultEndlessTime),
		},

		Sessions:   make(map[string]*sessionEntry),
		LimiterMap: make(map[string]*rate.Limiter),
		StartTime:  time.Now(),
	}

	app.startSessionJanitor(
		getEnvDuration("SESSION_MAX_AGE", time.Hour),
		getEnvDuration("SESSION_PRUNE_INTERVAL", 10*time.Minute),
	)

	router := setupRouter(app)
	startServer(app, router)
}

// setupRouter builds the gin engine with middleware and routes.
func setupRouter(app *App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(requestIDMiddleware())
	router.Use(app.rateLimitMiddleware())
	// Game state is live; never let intermediaries cache it.
	router.Use(cachecontrol.New(cachecontrol.Config{
		NoStore: true,
	}))

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteLadder, app.ladderHandler)
	router.GET(RouteProfile, app.profileHandler)
	router.POST(RouteSessionStart, app.startSessionHandler)
	router.POST(RouteSessionAnswer, app.answerHandler)
	router.POST(RouteSessionPause, app.pauseHandler)
	router.POST(RouteSessionResume, app.resumeHandler)
	router.POST(RouteSessionMenu, app.menuHandler)
	router.GET(RouteSessionState, app.stateHandler)
	router.GET(RouteSessionWS, app.wsHandler)
	router.GET(RouteHealth, app.healthHandler)

	return router
}

// startServer runs the HTTP server and shuts down gracefully on
// SIGINT/SIGTERM, sending every live session back to the menu so
// earned coins settle before exit.
func startServer(app *App, router *gin.Engine) {
	port := getEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logInfo("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logInfo("Shutting down server...")

	app.pruneSessions(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logFatal("Server forced to shutdown: %v", err)
	}

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			logWarn("Closing store failed: %v", err)
		}
	}
	logInfo("Server exited cleanly")
}
