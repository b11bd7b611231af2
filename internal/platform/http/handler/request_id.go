package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID はリクエスト相関用のヘッダー名です。
	HeaderRequestID = "X-Request-ID"
	// ContextRequestID はginコンテキストにリクエストIDを保持するキーです。
	ContextRequestID = "request_id"
)

// RequestID はクライアント指定のリクエストIDを引き継ぎ、無ければ新規に採番してレスポンスへ返します。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
