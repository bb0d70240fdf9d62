// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alumniverse/internal/config"
	"alumniverse/internal/handler"
	"alumniverse/internal/middleware"
	"alumniverse/internal/model"
	"alumniverse/internal/realtime"
	"alumniverse/internal/repository"
	"alumniverse/internal/service"
	"alumniverse/pkg/database"
	"alumniverse/pkg/es"
	"alumniverse/pkg/kafka"
	"alumniverse/pkg/log"
	"alumniverse/pkg/oauth"
	"alumniverse/pkg/storage"
	"alumniverse/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 同步数据库表结构
	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.Connection{},
		&model.Post{},
		&model.Job{},
		&model.Startup{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	connRepo := repository.NewConnectionRepository(database.DB)
	boardRepo := repository.NewBoardRepository(database.DB)
	lbRepo := repository.NewLeaderboardRepository(database.RDB)

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	googleClient := oauth.NewGoogleClient(cfg.OAuth)
	pointsPublisher := service.PointsPublisherFunc(kafka.ProducePointsEvent)

	userService := service.NewUserService(userRepo, jwtManager, database.RDB, cfg.Elasticsearch.IndexName)
	convService := service.NewConversationService(convRepo, userRepo)
	connService := service.NewConnectionService(connRepo, convRepo, userRepo, pointsPublisher)
	boardService := service.NewBoardService(boardRepo, pointsPublisher)
	lbService := service.NewLeaderboardService(userRepo, lbRepo)
	searchService := service.NewSearchService(cfg.Elasticsearch.IndexName)

	chatRouter := realtime.NewRouter()
	chatService := service.NewChatService(convRepo, chatRouter)

	// 7. 启动时按需重建排行榜，并启动积分事件消费者
	if err := lbService.RebuildIfEmpty(context.Background()); err != nil {
		log.Errorf("排行榜重建失败: %v", err)
	}
	consumerStop := make(chan struct{})
	go kafka.StartConsumer(cfg.Kafka, lbService, consumerStop)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	authed := middleware.AuthMiddleware(jwtManager, userService, database.RDB)
	api := r.Group("/api")
	{
		// Auth 路由组 (公开访问)
		authHandler := handler.NewAuthHandler(userService, googleClient, database.RDB, cfg.OAuth.FrontendURL)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refreshToken", authHandler.RefreshToken)
			auth.GET("/google", authHandler.GoogleLogin)
			auth.GET("/google/callback", authHandler.GoogleCallback)
		}

		// Users 路由组，需要认证
		userHandler := handler.NewUserHandler(userService)
		users := api.Group("/users")
		users.Use(authed)
		{
			users.GET("/me", userHandler.Me)
			users.PUT("/me", userHandler.UpdateProfile)
			users.POST("/me/onboard", userHandler.Onboard)
			users.POST("/me/avatar", userHandler.UploadAvatar)
			users.POST("/logout", userHandler.Logout)
			users.GET("/:id", userHandler.GetUser)
		}

		// Conversations 路由组，需要认证
		convHandler := handler.NewConversationHandler(convService)
		conversations := api.Group("/conversations")
		conversations.Use(authed)
		{
			conversations.GET("", convHandler.List)
			conversations.GET("/:id/messages", convHandler.History)
		}

		// Connections 路由组，需要认证
		connHandler := handler.NewConnectionHandler(connService)
		connections := api.Group("/connections")
		connections.Use(authed)
		{
			connections.POST("", connHandler.Request)
			connections.PUT("/:id", connHandler.Respond)
			connections.GET("", connHandler.List)
		}

		// 信息板块路由组，需要认证
		boardHandler := handler.NewBoardHandler(boardService)
		boards := api.Group("")
		boards.Use(authed)
		{
			boards.POST("/posts", boardHandler.CreatePost)
			boards.GET("/posts", boardHandler.ListPosts)
			boards.DELETE("/posts/:id", boardHandler.DeletePost)

			boards.POST("/jobs", boardHandler.CreateJob)
			boards.GET("/jobs", boardHandler.ListJobs)
			boards.DELETE("/jobs/:id", boardHandler.DeleteJob)

			boards.POST("/startups", boardHandler.CreateStartup)
			boards.GET("/startups", boardHandler.ListStartups)
			boards.DELETE("/startups/:id", boardHandler.DeleteStartup)
		}

		// Leaderboard 路由组，需要认证
		leaderboard := api.Group("/leaderboard")
		leaderboard.Use(authed)
		{
			leaderboard.GET("", handler.NewLeaderboardHandler(lbService).Top)
		}

		// Search 路由组，需要认证
		search := api.Group("/search")
		search.Use(authed)
		{
			search.GET("/users", handler.NewSearchHandler(searchService).SearchUsers)
		}
	}

	// Chat 路由 (WebSocket)，认证在握手阶段通过 token 查询参数完成
	chatHandler := handler.NewChatHandler(chatService, jwtManager, cfg.Chat.ReadLimitBytes, cfg.Chat.SendBufferSize)
	r.GET("/ws/chat", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// 关闭全部 WebSocket 连接并停止 Kafka 消费者
	chatRouter.Close()
	close(consumerStop)

	log.Info("服务已优雅关闭")
}
