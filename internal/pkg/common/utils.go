package common

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 寫入錯誤響應並中止後續處理
func WriteError(c *gin.Context, err error) {
	ce := AsCustomError(err)
	if ce.Status >= 500 {
		LogError("request failed",
			zap.Error(err),
			zap.String("code", ce.Code),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.AbortWithStatusJSON(ce.Status, ce.Response(gin.IsDebugging()))
}
