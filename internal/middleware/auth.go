package middleware

import (
	"strings"
	"student_risk_backend/internal/util"
	"student_risk_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier 提供当前的登录开关和签名密钥，配置热更新后立即生效
type TokenVerifier interface {
	Enabled() bool
	Secret() string
}

// AuthMiddleware 未启用登录时直接放行
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verifier.Enabled() {
			c.Next()
			return
		}

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, verifier.Secret())
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("operator", claims)
		c.Next()
	}
}
