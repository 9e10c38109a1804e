package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yko79135/lessonplangenerator/internal/api"
	"github.com/yko79135/lessonplangenerator/internal/chat"
	"github.com/yko79135/lessonplangenerator/internal/curriculum"
	"github.com/yko79135/lessonplangenerator/internal/gdocs"
	"github.com/yko79135/lessonplangenerator/internal/planner"
	"github.com/yko79135/lessonplangenerator/internal/platform/cache"
	"github.com/yko79135/lessonplangenerator/internal/platform/config"
	"github.com/yko79135/lessonplangenerator/internal/platform/database"
	"github.com/yko79135/lessonplangenerator/internal/render"
	"github.com/yko79135/lessonplangenerator/internal/store"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	if a.gateway != nil {
		if err := a.gateway.StartAll(ctx, a.handleChat(ctx)); err != nil {
			slog.Error("starting chat channels failed", "error", err)
			os.Exit(1)
		}
		defer a.gateway.StopAll()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      a.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig, w *os.File) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app is the wired process: the HTTP handler plus whatever must be closed on exit.
type app struct {
	handler http.Handler
	engine  *planner.Engine
	gateway *chat.Gateway
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	var ready []api.ReadyCheck

	var db *database.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		ready = append(ready, api.ReadyCheck{Name: "database", Check: db.HealthCheck})
	}

	st, err := openStore(ctx, cfg, db)
	if err != nil {
		a.close()
		return nil, err
	}
	if c, ok := st.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	var c cache.Cache = cache.NewMemory()
	if cfg.Cache.URL != "" {
		rc, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		ready = append(ready, api.ReadyCheck{Name: "cache", Check: rc.HealthCheck})
		c = rc
	}

	var events planner.EventLogger = planner.NopEventLogger{}
	if db != nil {
		pg := planner.NewPostgresEventLogger(db.Pool)
		if err := pg.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		events = pg
	}

	var curr planner.CurriculumSource
	if cfg.CurriculumPath != "" {
		loader, err := curriculum.NewLoader(cfg.CurriculumPath)
		if err != nil {
			a.close()
			return nil, err
		}
		if cfg.CurriculumWatch {
			go func() {
				if err := loader.Watch(ctx); err != nil {
					slog.Warn("curriculum watch stopped", "error", err)
				}
			}()
		}
		curr = loader
	}

	lib, err := planner.NewLibrary(planner.LibraryConfig{
		Dir:      cfg.Storage.SyllabiDir(),
		Store:    st,
		Cache:    c,
		CacheTTL: cfg.Cache.TTL,
		Events:   events,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	apiCfg := api.Config{
		Library:     lib,
		Curriculum:  curr,
		Renderer:    render.New(render.Options{FontPath: cfg.Render.FontPath}),
		Cache:       c,
		Uploader:    gdocs.NewUploader(gdocs.UploaderConfig{}),
		TeacherName: cfg.TeacherName,
		Ready:       ready,
		Google: api.GoogleConfig{
			OAuthUserJSON:      cfg.Google.OAuthUserJSON,
			ServiceAccountJSON: cfg.Google.ServiceAccountJSON,
			FolderID:           cfg.Google.FolderID,
		},
	}
	if strings.TrimSpace(cfg.Google.OAuthClientJSON) != "" {
		clientJSON, err := gdocs.LoadJSON(cfg.Google.OAuthClientJSON)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("loading google oauth client: %w", err)
		}
		oc, err := gdocs.NewOAuthClient(string(clientJSON), cfg.RedirectURL())
		if err != nil {
			a.close()
			return nil, err
		}
		apiCfg.OAuth = oc
	} else {
		slog.Info("google oauth client not configured, /oauth routes disabled")
	}
	a.handler = api.NewServer(apiCfg).Routes()

	a.engine = planner.NewEngine(planner.EngineConfig{
		Library:     lib,
		Curriculum:  curr,
		Sessions:    c,
		TeacherName: cfg.TeacherName,
	})
	if cfg.Telegram.BotToken != "" {
		tg, err := chat.NewTelegramChannel(cfg.Telegram.BotToken)
		if err != nil {
			a.close()
			return nil, err
		}
		a.gateway = chat.NewGateway()
		a.gateway.Register("telegram", tg)
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, db *database.DB) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return store.NewMemoryStore(), nil
	case config.StorageSQLite:
		return store.NewSQLiteStore(cfg.Storage.SQLitePath())
	case config.StoragePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres storage requires LESSON_DATABASE_URL")
		}
		return store.NewPostgresStore(ctx, db.Pool)
	default:
		return store.NewFileStore(cfg.Storage.IndexPath())
	}
}

// handleChat answers every inbound message with the engine's reply.
func (a *app) handleChat(ctx context.Context) func(chat.InboundMessage) {
	return func(msg chat.InboundMessage) {
		if err := a.gateway.SendTyping(ctx, msg.Channel, msg.UserID); err != nil {
			slog.Debug("send typing failed", "error", err)
		}
		reply, err := a.engine.ProcessMessage(ctx, msg)
		if err != nil {
			slog.Error("processing message failed", "user_id", msg.UserID, "error", err)
			return
		}
		if err := a.gateway.Reply(ctx, msg, reply); err != nil {
			slog.Error("sending reply failed", "user_id", msg.UserID, "error", err)
		}
	}
}
