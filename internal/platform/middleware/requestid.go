package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"

	maxRequestIDLength = 64
)

// RequestID: クライアント指定の X-Request-ID を引き継ぐ。無ければ採番する
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// Logger は gin.Logger と同じ1行ログに request_id を足したもの
func Logger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(formatLog)
}

func formatLog(p gin.LogFormatterParams) string {
	rid, _ := p.Keys[CtxRequestIDKey].(string)
	return fmt.Sprintf("[GIN] %s | %3d | %13v | %15s | %-7s %#v | rid=%s %s\n",
		p.TimeStamp.Format(time.DateTime),
		p.StatusCode,
		p.Latency,
		p.ClientIP,
		p.Method,
		p.Path,
		rid,
		p.ErrorMessage,
	)
}

// ID はハンドラ内から request_id を取り出す
func ID(c *gin.Context) string { return c.GetString(CtxRequestIDKey) }
