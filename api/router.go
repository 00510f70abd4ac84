package api

import (
	"github.com/BinLe1988/smart-marketplace/api/handlers"
	"github.com/BinLe1988/smart-marketplace/api/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置API路由
func SetupRouter(router *gin.Engine) {
	router.Use(cors.Default())

	// 公共API
	public := router.Group("/api")
	{
		// 认证相关
		public.POST("/auth/login", handlers.Login)
		public.POST("/auth/register", handlers.Register)
	}

	// 需要认证的API
	authorized := router.Group("/api")
	authorized.Use(middleware.Auth())
	{
		// 用户相关
		authorized.GET("/user", handlers.GetCurrentUser)
		authorized.POST("/auth/logout", handlers.Logout)

		// 匹配相关
		authorized.POST("/matching/find", handlers.FindMatches)
		authorized.GET("/matching/score", handlers.ScorePair)
		authorized.POST("/matching/config/invalidate", handlers.InvalidateMatchingConfig)
	}
}
