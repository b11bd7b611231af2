package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"fabric_backend/internal/app/router"
	inspectionadapters "fabric_backend/internal/feature/inspection/adapters"
	"fabric_backend/internal/feature/inspection/adapters/gemini"
	"fabric_backend/internal/feature/inspection/adapters/overlay"
	inspectionhandler "fabric_backend/internal/feature/inspection/transport/handler"
	"fabric_backend/internal/feature/inspection/usecase"
	"fabric_backend/internal/platform/cache"
	"fabric_backend/internal/platform/db"
	jwtmw "fabric_backend/internal/platform/jwt"
	"fabric_backend/internal/platform/ratelimit"
	platformredis "fabric_backend/internal/platform/redis"
)

func main() {
	started := time.Now()

	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(os.Getenv("LOG_LEVEL"))})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// モデル（起動時に一度だけロード）
	registry, closers := loadBackends(ctx)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				slog.Warn("failed to close backend", "error", err)
			}
		}
	}()

	// Redis（任意）
	var rdb *redisv9.Client
	if tmp, err := platformredis.NewRedisClient(); err != nil {
		slog.Warn("Redis unavailable. Running without rate limit and cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// 検査履歴（DB接続失敗時は履歴なしで起動）
	var history inspectionhandler.InspectionHistory
	if gdb, err := db.OpenDB(db.LoadConfigFromEnv(), &inspectionadapters.InspectionModel{}); err != nil {
		slog.Warn("inspection history disabled", "error", err)
	} else {
		repo := cache.NewCachingInspectionRepository(rdb, 30*time.Second, inspectionadapters.NewInspectionRepository(gdb), "inspections")
		history = usecase.NewHistoryUsecase(repo)
	}

	// 欠陥サマリー（任意）
	var describer usecase.DefectDescriber
	if gemini.Enabled() {
		if d, err := gemini.NewGeminiDescriber(ctx); err != nil {
			slog.Warn("Gemini describer disabled", "error", err)
		} else {
			describer = d
		}
	}

	renderer := overlay.NewRenderer(overlay.LoadConfig().FontPath)
	inspectionUC := usecase.NewInspectionUsecase(registry, renderer, describer)
	inspectionH := inspectionhandler.NewInspectionHandler(inspectionUC, registry, history)

	requireAuth := os.Getenv(jwtmw.EnvKeyJWTSecret) != ""
	if !requireAuth {
		slog.Warn("JWT_SECRET is not set. /infer and /inspections are open.")
	}

	r := router.NewRouter(inspectionH, router.Options{
		Started:      started,
		Limiter:      ratelimit.NewLimiter(rdb, ratelimit.LoadPerMinute(), time.Minute),
		RequireAuth:  requireAuth,
		AllowOrigins: router.LoadAllowOrigins(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
