package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 恢复中间件
//
// 未预期的 panic 按可恢复错误处理：记录日志、返回 500，不中断进程。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		zap.S().Errorw("recovered from panic",
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		c.JSON(500, gin.H{
			"code":    500,
			"message": "internal server error",
		})
		c.Abort()
	})
}
