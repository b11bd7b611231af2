// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Liveness はプロセス生存確認用の /healthz ハンドラーを返します。
// モデルの読み込み状態には依存せず、起動からの経過秒数のみを返します。
func Liveness(started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
		default:
			c.JSON(http.StatusOK, gin.H{
				"status":   "ok",
				"uptime_s": int64(time.Since(started) / time.Second),
			})
		}
	}
}
