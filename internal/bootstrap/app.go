package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/Keknotocrack/hr-music-bot/internal/handler/http"
	wsHandler "github.com/Keknotocrack/hr-music-bot/internal/handler/websocket"
	"github.com/Keknotocrack/hr-music-bot/internal/hub"
	gormpersistence "github.com/Keknotocrack/hr-music-bot/internal/infra/persistence/gorm"
	"github.com/Keknotocrack/hr-music-bot/internal/infra/setup"
	"github.com/Keknotocrack/hr-music-bot/internal/middleware"
	"github.com/Keknotocrack/hr-music-bot/internal/service"
	"github.com/Keknotocrack/hr-music-bot/internal/supervisor"
	"github.com/Keknotocrack/hr-music-bot/internal/tasks"
	"github.com/Keknotocrack/hr-music-bot/internal/worker"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	ServerPort      string
	LogLevel        string
	RateLimitMax    int
	RateLimitWindow time.Duration
	JWTExpiryHours  int
	AppEnv          string

	// 机器人进程相关配置
	HighriseAPIToken string // 房间配置未提供凭证时的回退值
	BotCommand       string
	BotEntrypoint    string
	BotWorkDir       string
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:           os.Getenv("DB_USER"),
		DBPassword:       os.Getenv("DB_PASSWORD"),
		DBHost:           os.Getenv("DB_HOST"),
		DBPort:           os.Getenv("DB_PORT"),
		DBName:           os.Getenv("DB_NAME"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		ServerPort:       os.Getenv("SERVER_PORT"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		AppEnv:           os.Getenv("APP_ENV"),
		HighriseAPIToken: os.Getenv("HIGHRISE_API_TOKEN"),
		BotCommand:       os.Getenv("BOT_COMMAND"),
		BotEntrypoint:    os.Getenv("BOT_ENTRYPOINT"),
		BotWorkDir:       os.Getenv("BOT_WORKDIR"),
		RateLimitMax:     100,
		RateLimitWindow:  1 * time.Second,
		JWTExpiryHours:   24,
	}

	redisDBStr := os.Getenv("REDIS_DB")
	cfg.RedisDB, _ = strconv.Atoi(redisDBStr)

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App 结构体包含应用的所有组件和配置
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Hub            *hub.Hub
	Supervisor     *supervisor.Supervisor
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel)
	logrus.SetFormatter(log.Formatter)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	// 4. 初始化 Repositories
	log.Info("Initializing repositories...")
	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	queueRepo := gormpersistence.NewGormQueueRepository(db)
	likeRepo := gormpersistence.NewGormLikeRepository(db)
	txRepo := gormpersistence.NewGormTransactionRepository(db)
	configRepo := gormpersistence.NewGormBotConfigRepository(db)
	competitionRepo := gormpersistence.NewGormCompetitionRepository(db)
	urlRepo := gormpersistence.NewGormURLRepository(db)
	statsRepo := gormpersistence.NewGormStatsRepository(db)
	transactor := gormpersistence.NewGormTransactor(db)
	log.Info("Repositories initialized")

	// 5. 初始化 Hub 和 Supervisor
	// Hub 的状态快照来自 Supervisor，而 Supervisor 又向 Hub 发事件，
	// 先建 Supervisor 再把它的快照函数交给 Hub，事件方向通过延迟绑定解耦
	log.Info("Initializing hub and supervisor...")
	eventBridge := &publisherBridge{}
	launcher := supervisor.NewExecLauncher(cfg.BotCommand, cfg.BotEntrypoint, cfg.BotWorkDir)
	sup := supervisor.NewSupervisor(launcher, roomRepo, configRepo, eventBridge, supervisor.Options{
		DefaultToken: cfg.HighriseAPIToken,
	})
	hubInstance := hub.NewHub(sup.StatusSnapshot)
	eventBridge.hub = hubInstance
	log.Info("Hub and supervisor initialized")

	// 6. 初始化 Services
	log.Info("Initializing services...")
	authService, err := service.NewAuthService(userRepo, transactor, hubInstance, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, hubInstance)
	economyService := service.NewEconomyService(userRepo, roomRepo, queueRepo, likeRepo, txRepo, configRepo, transactor, hubInstance)
	configService := service.NewBotConfigService(configRepo, roomRepo, hubInstance)
	competitionService := service.NewCompetitionService(competitionRepo, roomRepo, hubInstance)
	urlService := service.NewURLService(urlRepo, roomRepo)
	statsService := service.NewStatsService(statsRepo, userRepo, roomRepo, txRepo)
	log.Info("Services initialized")

	// 7. 初始化 Handlers
	log.Info("Initializing handlers...")
	authHandler := httpHandler.NewAuthHandler(authService)
	roomHandler := httpHandler.NewRoomHandler(roomService, urlService)
	queueHandler := httpHandler.NewQueueHandler(economyService)
	cubeHandler := httpHandler.NewCubeHandler(economyService)
	botHandler := httpHandler.NewBotHandler(sup)
	configHandler := httpHandler.NewBotConfigHandler(configService)
	competitionHandler := httpHandler.NewCompetitionHandler(competitionService)
	statsHandler := httpHandler.NewStatsHandler(statsService)
	websocketHandler := wsHandler.NewWebSocketHandler(hubInstance)
	log.Info("Handlers initialized")

	// 8. 初始化 Worker Server
	workerServer := worker.NewWorkerServer(redisClientOpt, statsService, competitionService, log)
	log.Info("Worker server initialized")

	// 9. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	router.Use(func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", middleware.Auth(cfg.JWTSecret), authHandler.Me)
	}
	userRoutes := api.Group("/users").Use(middleware.Auth(cfg.JWTSecret))
	{
		userRoutes.PUT("/:id/role", authHandler.UpdateRole)
	}
	roomRoutes := api.Group("/rooms").Use(middleware.Auth(cfg.JWTSecret))
	{
		roomRoutes.POST("", roomHandler.CreateRoom)
		roomRoutes.GET("", roomHandler.ListRooms)
		roomRoutes.GET("/:id", roomHandler.GetRoom)
		roomRoutes.DELETE("/:id", roomHandler.DeactivateRoom)
		roomRoutes.POST("/:id/share", roomHandler.CreateShortLink)

		roomRoutes.GET("/:id/config", configHandler.Get)
		roomRoutes.PUT("/:id/config", configHandler.Upsert)
		roomRoutes.DELETE("/:id/config", configHandler.Delete)

		roomRoutes.GET("/:id/queue", queueHandler.ListQueue)
		roomRoutes.POST("/:id/queue", queueHandler.Enqueue)

		roomRoutes.GET("/:id/competitions", competitionHandler.ListActive)
		roomRoutes.POST("/:id/competitions", competitionHandler.Start)
	}
	queueRoutes := api.Group("/queue").Use(middleware.Auth(cfg.JWTSecret))
	{
		queueRoutes.GET("", queueHandler.ListAllQueues)
		queueRoutes.DELETE("/:itemId", queueHandler.Dequeue)
		queueRoutes.POST("/:itemId/like", queueHandler.Like)
		queueRoutes.DELETE("/:itemId/like", queueHandler.Unlike)
		queueRoutes.POST("/:itemId/playing", queueHandler.MarkPlaying)
	}
	cubeRoutes := api.Group("/cubes").Use(middleware.Auth(cfg.JWTSecret))
	{
		cubeRoutes.POST("/purchase", cubeHandler.Purchase)
		cubeRoutes.POST("/daily-reward", cubeHandler.ClaimDailyReward)
		cubeRoutes.GET("/transactions", cubeHandler.ListTransactions)
	}
	botRoutes := api.Group("/bot").Use(middleware.Auth(cfg.JWTSecret))
	{
		botRoutes.POST("/start", botHandler.Start)
		botRoutes.POST("/stop", botHandler.Stop)
		botRoutes.POST("/restart", botHandler.Restart)
		botRoutes.GET("/status", botHandler.Status)
	}
	configRoutes := api.Group("/bot-configs").Use(middleware.Auth(cfg.JWTSecret))
	{
		configRoutes.GET("", configHandler.List)
	}
	competitionRoutes := api.Group("/competitions").Use(middleware.Auth(cfg.JWTSecret))
	{
		competitionRoutes.POST("/:competitionId/end", competitionHandler.End)
	}
	statsRoutes := api.Group("/stats").Use(middleware.Auth(cfg.JWTSecret))
	{
		statsRoutes.GET("/today", statsHandler.Today)
		statsRoutes.GET("/:date", statsHandler.ForDate)
	}
	// 短链解析是公开的，不需要认证
	router.GET("/s/:code", roomHandler.ResolveShortLink)

	router.GET("/ws", websocketHandler.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 10. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		Supervisor:     sup,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// registerPeriodicTasks 注册周期性后台任务并启动调度器
func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	rollupPayload, err := tasks.NewStatsRollupPayload()
	if err != nil {
		a.Log.Errorf("Failed to create stats rollup task payload: %v", err)
		return
	}
	rollupTask := asynq.NewTask(tasks.TypeStatsRollup, rollupPayload)
	if entryID, err := scheduler.Register("@every 15m", rollupTask, asynq.Queue("low")); err != nil {
		a.Log.Errorf("Could not register stats rollup task: %v", err)
	} else {
		a.Log.Infof("Stats rollup task registered (EntryID: %s)", entryID)
	}

	sweepTask := asynq.NewTask(tasks.TypeCompetitionSweep, nil)
	if entryID, err := scheduler.Register("@every 1m", sweepTask, asynq.Queue("default")); err != nil {
		a.Log.Errorf("Could not register competition sweep task: %v", err)
	} else {
		a.Log.Infof("Competition sweep task registered (EntryID: %s)", entryID)
	}

	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止 Hub，断开所有观察者
	if a.Hub != nil {
		a.Hub.Stop()
	}

	// 2. 优雅关闭 Worker Server
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 3. 优雅关闭 HTTP 服务器
	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 4. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	// 5. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// publisherBridge 延迟绑定 Hub，打破 Supervisor 和 Hub 的构造顺序循环。
// Hub 需要 Supervisor 的状态函数，Supervisor 需要向 Hub 发事件。
type publisherBridge struct {
	hub *hub.Hub
}

func (b *publisherBridge) Publish(event hub.Event) bool {
	if b.hub == nil {
		return false
	}
	return b.hub.Publish(event)
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   clientIP,
			"method":      method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else {
			if statusCode >= 500 {
				entry.Error("Server error")
			} else if statusCode >= 400 {
				entry.Warn("Client error")
			} else {
				entry.Info("Request handled")
			}
		}
	}
}
