package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response 统一响应格式
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Errors    []string    `json:"errors,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:      http.StatusOK,
		Message:   "success",
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// ValidationError 校验失败响应，携带全部待处理的校验消息
func ValidationError(c *gin.Context, messages []string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Code:      http.StatusUnprocessableEntity,
		Message:   "validation failed",
		Errors:    messages,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
