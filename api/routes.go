package api

import (
	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/discovery"
	"github.com/SlpAus/creature-dex-backend/internal/item"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/SlpAus/creature-dex-backend/internal/quest"
	"github.com/gin-gonic/gin"
)

// Handlers 汇总了各模块的HTTP处理器
type Handlers struct {
	Players   *player.Handler
	Creatures *creature.Handler
	Discovery *discovery.Handler
	Items     *item.Handler
	Quests    *quest.Handler
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api")
	{
		players := api.Group("/players")
		{
			players.GET("", h.Players.ListPlayers)
			players.GET("/ranking", h.Players.GetRanking)
			players.GET("/:name", h.Players.GetPlayer)
		}

		pokemon := api.Group("/pokemon")
		{
			pokemon.GET("", h.Creatures.ListCreatures)
			pokemon.POST("", h.Discovery.Discover)
			pokemon.POST("/:id/reward", h.Discovery.RetryReward)
			pokemon.DELETE("/:id", h.Discovery.Release)
		}

		items := api.Group("/items")
		{
			items.GET("", h.Items.ListItems)
			items.POST("", h.Items.AddItem)
			items.PUT("/:id/quantity", h.Items.SetQuantity)
			items.POST("/:id/increment", h.Items.Increment)
			items.DELETE("/:id", h.Items.Discard)
		}

		quests := api.Group("/daily-quests")
		{
			quests.GET("/today", h.Quests.GetToday)
			quests.GET("/summaries", h.Quests.Summaries)
			quests.POST("", h.Quests.Create)
		}
	}
}
