package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RedDot15/BE-Xiangqi/internal/api"
	"github.com/RedDot15/BE-Xiangqi/internal/config"
	"github.com/RedDot15/BE-Xiangqi/internal/database"
	apperrors "github.com/RedDot15/BE-Xiangqi/internal/errors"
	"github.com/RedDot15/BE-Xiangqi/internal/logger"
	"github.com/RedDot15/BE-Xiangqi/internal/match"
	"github.com/RedDot15/BE-Xiangqi/internal/repository"
	"github.com/RedDot15/BE-Xiangqi/internal/service"
	"github.com/RedDot15/BE-Xiangqi/internal/store"
	"github.com/RedDot15/BE-Xiangqi/internal/utils"
	ws "github.com/RedDot15/BE-Xiangqi/internal/websocket"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	kv         store.Store
	hub        *ws.Hub
	dispatcher *match.Dispatcher
	httpServer *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("be-xiangqi %s (build: %s, commit: %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动象棋对战服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initDatabase(); err != nil {
		return err
	}

	switch s.cfg.Server.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	// 共享存储与分布式锁
	s.kv = store.NewMemoryStore()
	locks := store.NewLockManager(s.kv, s.cfg.Store.LockTTL, s.cfg.Store.LockRetryDelay)

	// 仓储
	db := database.GetDB()
	playerRepo := repository.NewPlayerRepository(db)
	matchRepo := repository.NewMatchRepository(db)

	// WebSocket推送
	s.hub = ws.NewHub(logger.WithModule("websocket"))
	notifier := ws.NewHubNotifier(s.hub)

	// 对局协调核心
	sessionStore := match.NewSessionStore(s.kv)
	oracle := match.NewHTTPOracle(s.cfg.AI, logger.WithModule("ai"))
	matchService := match.NewMatchService(
		sessionStore, locks, matchRepo, playerRepo,
		notifier, oracle, s.cfg.Match, logger.WithModule("match"))
	contractService := match.NewContractService(
		s.kv, locks, matchService, notifier,
		s.cfg.Matchmaking.ContractTTL, logger.WithModule("contract"))
	queueService := match.NewQueueService(
		s.kv, locks, playerRepo, contractService, notifier,
		match.PolicyFromConfig(s.cfg.Matchmaking), logger.WithModule("queue"))
	s.dispatcher = match.NewDispatcher(
		s.kv.Expirations(), matchService, contractService, logger.WithModule("dispatcher"))

	// 认证与玩家服务
	jwtManager := utils.NewJWTManager(
		s.cfg.Security.JWT.Secret,
		time.Duration(s.cfg.Security.JWT.ExpireHours)*time.Hour,
		time.Duration(s.cfg.Security.JWT.RefreshHours)*time.Hour)
	authService := service.NewAuthService(playerRepo, jwtManager, logger.WithModule("auth"))
	playerService := service.NewPlayerService(playerRepo, matchRepo, logger.WithModule("player"))

	// 路由
	router := api.NewRouter(api.Deps{
		AuthService:   authService,
		PlayerService: playerService,
		QueueService:  queueService,
		Contracts:     contractService,
		Matches:       matchService,
		Hub:           s.hub,
		JWTManager:    jwtManager,
		Config:        s.cfg,
	}, logger.WithModule("api"))

	s.startServices(router.Engine())

	// 监听配置文件变更
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新", zap.String("log_level", newCfg.Log.Level))
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)))
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "初始化数据库连接失败")
	}
	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "数据库迁移失败")
		}
		if err := database.SeedAIPlayers(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "初始化AI账号失败")
		}
	}
	return nil
}

// startServices 启动后台服务
func (s *Server) startServices(engine *gin.Engine) {
	// WebSocket Hub（随进程退出）
	go s.hub.Run()

	// 过期事件分发
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatcher.Run(s.ctx)
	}()

	// HTTP服务
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP服务关闭失败", zap.Error(err))
		}
	}

	s.cancel()
	if s.kv != nil {
		s.kv.Close()
	}
	if err := database.Close(); err != nil {
		s.logger.Error("数据库关闭失败", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("等待后台服务退出超时")
	}
	return nil
}
