// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"alumniverse/internal/service"
	"alumniverse/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性并检查黑名单，
// 然后将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 请求头中获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "请求未包含授权头"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的授权头格式"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效或已过期的 token"})
			return
		}

		// 已登出的 token 在黑名单中，直到自然过期
		if exists, err := redisClient.Exists(c.Request.Context(), "blacklist:"+tokenString).Result(); err == nil && exists > 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token 已失效，请重新登录"})
			return
		}

		// 使用 claims 中的用户 ID 从数据库获取完整的用户信息
		user, err := userService.GetByID(claims.UserID)
		if err != nil {
			// 用户可能已被删除
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户不存在"})
			return
		}

		// 将完整的 User 对象存储在 context 中，供后续处理函数使用
		c.Set("user", user)
		c.Set("claims", claims)
		c.Set("token", tokenString)

		c.Next()
	}
}
