package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/config"
	"github.com/RedDot15/BE-Xiangqi/internal/match"
	"github.com/RedDot15/BE-Xiangqi/internal/middleware"
	"github.com/RedDot15/BE-Xiangqi/internal/service"
	"github.com/RedDot15/BE-Xiangqi/internal/utils"
	ws "github.com/RedDot15/BE-Xiangqi/internal/websocket"
)

// Router API路由器
type Router struct {
	engine *gin.Engine
	log    *zap.Logger
}

// Deps 路由依赖
type Deps struct {
	AuthService   *service.AuthService
	PlayerService *service.PlayerService
	QueueService  *match.QueueService
	Contracts     *match.ContractService
	Matches       *match.MatchService
	Hub           *ws.Hub
	JWTManager    *utils.JWTManager
	Config        *config.Config
}

// NewRouter 创建路由器
func NewRouter(deps Deps, log *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	r := &Router{engine: engine, log: log}
	r.setupRoutes(deps)
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes(deps Deps) {
	authHandler := NewAuthHandler(deps.AuthService)
	playerHandler := NewPlayerHandler(deps.PlayerService)
	queueHandler := NewQueueHandler(deps.QueueService)
	contractHandler := NewContractHandler(deps.Contracts)
	matchHandler := NewMatchHandler(deps.Matches)
	wsHandler := NewWebSocketHandler(deps.Hub, deps.Config.WebSocket, r.log)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTManager)

	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// 玩家信息
		players := v1.Group("/players")
		players.Use(authMiddleware.RequireAuth())
		{
			players.GET("/me", playerHandler.Me)
			players.GET("/me/history", playerHandler.History)
			players.GET("/:id", playerHandler.Profile)
		}

		// 匹配队列
		queue := v1.Group("/queue")
		queue.Use(authMiddleware.RequireAuth())
		{
			queue.POST("", queueHandler.Join)
			queue.DELETE("", queueHandler.Leave)
		}

		// 匹配契约
		contracts := v1.Group("/match-contracts")
		contracts.Use(authMiddleware.RequireAuth())
		{
			contracts.GET("/:id", contractHandler.Get)
			contracts.POST("/:id/accept", contractHandler.Accept)
		}

		// 对局
		matches := v1.Group("/matches")
		matches.Use(authMiddleware.RequireAuth())
		{
			matches.POST("/ai", matchHandler.CreateWithAI)
			matches.GET("/:id", matchHandler.State)
			matches.POST("/:id/ready", matchHandler.Ready)
			matches.POST("/:id/move", matchHandler.Move)
			matches.POST("/:id/resign", matchHandler.Resign)
		}
	}

	// WebSocket事件推送
	wsGroup := r.engine.Group(deps.Config.WebSocket.Path)
	wsGroup.Use(authMiddleware.RequireAuth())
	{
		wsGroup.GET("", wsHandler.Connect)
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Engine 返回Gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
