package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/creature-dex-backend/api"
	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/discovery"
	"github.com/SlpAus/creature-dex-backend/internal/imagehost"
	"github.com/SlpAus/creature-dex-backend/internal/item"
	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/SlpAus/creature-dex-backend/internal/platform/health"
	"github.com/SlpAus/creature-dex-backend/internal/platform/shutdown"
	"github.com/SlpAus/creature-dex-backend/internal/platform/startup"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/SlpAus/creature-dex-backend/internal/quest"
	"github.com/SlpAus/creature-dex-backend/internal/reward"
	"github.com/SlpAus/creature-dex-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}
	config.Cfg = cfg
	gin.SetMode(cfg.Server.Mode)

	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	rewards, err := reward.FromConfig(cfg.Reward)
	if err != nil {
		panic(fmt.Sprintf("积分配置无效: %v", err))
	}
	images, err := imagehost.New(cfg.Image)
	if err != nil {
		panic(fmt.Sprintf("图片托管配置无效: %v", err))
	}

	ctx := context.Background()
	board := player.NewLeaderboard(database.RDB)
	rebuild := func(ctx context.Context) error {
		return startup.RebuildCache(ctx, database.DB, board)
	}

	var checker *health.Checker
	if database.RedisEnabled() {
		checker = health.NewChecker(database.RDB, rebuild)
		if err := checker.InitializeRunID(ctx); err != nil {
			panic(err.Error())
		}
	}

	if err := startup.InitializeApplication(ctx, database.DB, board); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	if checker != nil {
		fmt.Println("正在执行启动后健康检查...")
		checker.PerformCheck(ctx)
		if err := gracefulManager.Go("redis-health", checker.Run); err != nil {
			panic(err.Error())
		}

		forcefulHandle, err := forcefulManager.NewServiceHandle("leaderboard-resync")
		if err != nil {
			panic(err.Error())
		}
		err = gracefulManager.Go("leaderboard-resync", func(h *lifecycle.Handle) {
			defer forcefulHandle.Close()
			if err := player.StartResyncScheduler(h, forcefulHandle, cfg.Leaderboard.ResyncSpec, database.DB, board); err != nil {
				fmt.Printf("排行榜同步任务启动失败: %v\n", err)
			}
		})
		if err != nil {
			panic(err.Error())
		}
	}

	handlers := api.Handlers{
		Players:   player.NewHandler(player.NewRepository(database.DB, board), board, cfg.Leaderboard.TopSize),
		Creatures: creature.NewHandler(creature.NewRepository(database.DB)),
		Discovery: discovery.NewHandler(
			discovery.NewReconciler(discovery.NewGormBackend(database.DB, board), rewards),
			images,
		),
		Items:  item.NewHandler(item.NewRepository(database.DB), images),
		Quests: quest.NewHandler(quest.NewRepository(database.DB), quest.NewCache(database.RDB)),
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	api.SetupRoutes(r, handlers)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager, database.CloseRedis, database.CloseDB)
	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	coordinator.ListenForSignalsAndShutdown(srv)
}
