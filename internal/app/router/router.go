package router

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	inspectionhandler "fabric_backend/internal/feature/inspection/transport/handler"
	"fabric_backend/internal/platform/http/handler"
	jwtmw "fabric_backend/internal/platform/jwt"
	"fabric_backend/internal/platform/ratelimit"
)

// Options はルーター構築時の任意設定です。
type Options struct {
	// Started はプロセス起動時刻です（/healthz の経過秒数に使用）。
	Started time.Time
	// Limiter は /infer に適用するレートリミッターです。nilなら制限なし。
	Limiter *ratelimit.Limiter
	// RequireAuth がtrueなら /infer と /inspections にJWTを要求します。
	RequireAuth bool
	// AllowOrigins はCORSで許可するオリジンです。空または "*" なら全許可。
	AllowOrigins []string
}

// LoadAllowOrigins は CORS_ALLOW_ORIGINS（カンマ区切り）を読み込みます。
func LoadAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ALLOW_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func NewRouter(inspection *inspectionhandler.InspectionHandler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), handler.RequestID())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Liveness(opts.Started))
	r.GET("/health", inspection.Health)
	r.GET("/models", inspection.Models)

	// 推論と履歴（JWT_SECRET設定時のみ認証必須）
	protected := r.Group("/")
	if opts.RequireAuth {
		protected.Use(jwtmw.AuthRequired())
	}
	{
		protected.POST("/infer", opts.Limiter.Middleware(), inspection.Infer)
		protected.GET("/inspections", inspection.Inspections)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", handler.HeaderRequestID)
	cfg.ExposeHeaders = append(cfg.ExposeHeaders, handler.HeaderRequestID)
	return cfg
}
