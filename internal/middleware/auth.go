package middleware

import (
	"strings"
	"study_buddy_backend/internal/config"
	"study_buddy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 强制认证，无有效令牌直接拒绝
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, cfg)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Set("user", claims)
		c.Next()
	}
}

// TryAuthMiddleware 可选认证，令牌有效则注入用户，否则按游客放行
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, cfg); ok {
			c.Set("user", claims)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, cfg *config.Config) (*util.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := util.ParseJWT(parts[1], cfg.JWT.Secret)
	if err != nil {
		return nil, false
	}
	return claims, true
}
