package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/polypixel/polypixel/backend-go/internal/auth"
	"github.com/polypixel/polypixel/backend-go/internal/config"
	"github.com/polypixel/polypixel/backend-go/internal/db"
	"github.com/polypixel/polypixel/backend-go/internal/engine"
	"github.com/polypixel/polypixel/backend-go/internal/levels"
	mw "github.com/polypixel/polypixel/backend-go/internal/middleware"
	"github.com/polypixel/polypixel/backend-go/internal/play"
	"github.com/polypixel/polypixel/backend-go/internal/slicer"
	"github.com/polypixel/polypixel/backend-go/internal/typeid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
	}

	queries := db.New(pool)

	authService := auth.NewService(queries, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	levelService := levels.NewService(queries)
	levelHandler := levels.NewHandler(levelService)

	tol := slicer.DefaultTolerances()
	tol.MinPieceArea = cfg.MinPieceArea
	tol.MinPieceRatio = cfg.MinPieceRatio

	hub := play.NewHub(levelService.Loader(), levelService.Saver(),
		engine.WithMaxHops(cfg.MaxHops),
		engine.WithTolerances(tol),
	)
	go hub.Run()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Auth routes (public)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Level library (public)
	r.HandleFunc("/levels", levelHandler.List).Methods("GET")
	r.HandleFunc("/levels/{levelId}", levelHandler.Get).Methods("GET")
	r.HandleFunc("/levels/{levelId}/preview.png", levelHandler.Preview).Methods("GET")
	r.HandleFunc("/levels/{levelId}/scores", levelHandler.ListScores).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/levels", levelHandler.Create).Methods("POST")
	api.HandleFunc("/levels/{levelId}", levelHandler.Delete).Methods("DELETE")
	api.HandleFunc("/levels/{levelId}/scores", levelHandler.SubmitScore).Methods("POST")

	// WebSocket endpoint; a token is optional, anonymous runs are not scored.
	ws := r.PathPrefix("/ws").Subrouter()
	ws.Use(authService.OptionalMiddleware)
	ws.HandleFunc("/play/{levelId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "maxHops", cfg.MaxHops)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *play.Hub, authSvc *auth.Service, origins []string) {
	levelID := mux.Vars(r)["levelId"]

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = typeid.NewSessionID()
	}

	playerID := auth.PlayerIDFromContext(r.Context())
	displayName := "Anonymous"
	anonymous := playerID == ""
	if anonymous {
		playerID = "anon-" + uuid.New().String()[:8]
	} else {
		player, err := authSvc.GetPlayer(r.Context(), playerID)
		if err != nil {
			http.Error(w, "player not found", http.StatusUnauthorized)
			return
		}
		displayName = player.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: hostPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := play.NewClient(hub, conn, playerID, displayName, anonymous, levelID, sessionID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
