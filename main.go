package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tripmind/auth"
	"tripmind/config"
	"tripmind/database"
	"tripmind/external"
	"tripmind/handlers"
	"tripmind/middleware"
	"tripmind/repository"
	"tripmind/routes"
	"tripmind/services"
	"tripmind/uploads"
	"tripmind/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

// store bundles the repositories with a way to report readiness.
type store struct {
	users repository.UserRepository
	trips repository.TripRepository
	posts repository.PostRepository
	ready middleware.Readiness
	state func() string
	close func(ctx context.Context) error
}

type alwaysReady struct{}

func (alwaysReady) Ready() bool { return true }

// openStore never blocks on MongoDB: the manager connects in the
// background and requests are answered 503 until it is Connected.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &store{
			users: mem.Users(),
			trips: mem.Trips(),
			posts: mem.Posts(),
			ready: alwaysReady{},
			state: func() string { return config.StoreMemory },
			close: func(context.Context) error { return nil },
		}, nil
	}

	m, err := database.NewManager(cfg.Mongo, log)
	if err != nil {
		return nil, err
	}
	m.OnConnected(func(ctx context.Context, db *mongo.Database) error {
		return repository.EnsureIndexes(ctx, db)
	})
	go func() {
		_ = m.Run(ctx)
	}()

	db := m.Database()
	return &store{
		users: repository.NewUserRepository(db),
		trips: repository.NewTripRepository(db),
		posts: repository.NewPostRepository(db),
		ready: m,
		state: func() string { return m.State().String() },
		close: m.Disconnect,
	}, nil
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.GinMode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	hc := external.NewHTTPClient(cfg.ExternalTimeout)
	mapClient, err := external.NewMapClient(cfg.Maps.APIKey, cfg.Maps.BaseURL, hc)
	if err != nil {
		return err
	}
	images, err := uploads.New(cfg.CloudinaryURL)
	if err != nil {
		return err
	}
	for name, set := range map[string]bool{
		"OPENAI_API_KEY":      cfg.OpenAI.APIKey != "",
		"WEATHER_API_KEY":     cfg.Weather.APIKey != "",
		"GOOGLE_MAPS_API_KEY": cfg.Maps.APIKey != "",
	} {
		if !set {
			log.Warn("integration disabled, plan responses will use placeholders", "missing", name)
		}
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	limiter := middleware.NewIPRateLimiter(cfg.PlanRateLimit, cfg.PlanRateWindow)
	go sweep(ctx, limiter, cfg.PlanRateWindow)

	h := &handlers.Handler{
		Auth:      services.NewAuthService(st.users, issuer),
		Trips:     services.NewTripService(st.trips),
		Community: services.NewCommunityService(st.posts, hub),
		Planner: services.NewPlanner(
			external.NewItineraryClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, hc),
			external.NewWeatherClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, hc),
			mapClient,
			log,
		),
		Images:     images,
		StoreState: st.state,
		Log:        log,
	}

	router := routes.SetupRouter(routes.Deps{
		Handler:     h,
		Tokens:      issuer,
		Database:    st.ready,
		PlanLimiter: limiter,
		LiveFeed:    hub.Handler(),
		CORSOrigins: cfg.CORSAllowedOrigins,
		Log:         log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// The planner may wait on an outbound call for the full timeout.
		WriteTimeout: cfg.ExternalTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Port, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "err", err)
	}
	if err := st.close(shutdownCtx); err != nil {
		log.Error("close store", "err", err)
	}
	log.Info("server stopped")
	return nil
}

func sweep(ctx context.Context, rl *middleware.IPRateLimiter, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Sweep()
		}
	}
}
