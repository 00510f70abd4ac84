package main

import (
	"log"

	"github.com/BinLe1988/smart-marketplace/api"
	"github.com/BinLe1988/smart-marketplace/api/handlers"
	"github.com/BinLe1988/smart-marketplace/configs"
	"github.com/BinLe1988/smart-marketplace/database"
	"github.com/BinLe1988/smart-marketplace/pkg/matching"
	"github.com/BinLe1988/smart-marketplace/pkg/utils"
	"github.com/BinLe1988/smart-marketplace/repository"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化JWT
	utils.InitJWT(cfg)

	// 初始化数据库连接
	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// 组装匹配引擎
	listingRepo := repository.NewListingRepo(database.DB)
	provider := matching.NewConfigProvider(cfg.Matching.ConfigLocation)
	engine := matching.NewEngine(matching.Repositories{
		Listings:     listingRepo,
		Tags:         repository.NewTagRepo(database.DB),
		GeoPoints:    repository.NewGeoPointRepo(database.DB),
		UserProfiles: repository.NewUserProfileRepo(database.DB),
		Insights:     repository.NewInsightRepo(database.DB),
	}, provider)
	handlers.InitMatching(engine, provider, listingRepo)

	// 创建Gin实例
	router := gin.Default()

	// 设置路由
	api.SetupRouter(router)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
