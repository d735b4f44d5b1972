package player

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// Handler 提供玩家相关的只读接口
type Handler struct {
	repo    *Repository
	board   *Leaderboard
	topSize int
}

func NewHandler(repo *Repository, board *Leaderboard, topSize int) *Handler {
	if topSize <= 0 {
		topSize = 10
	}
	return &Handler{repo: repo, board: board, topSize: topSize}
}

// ListPlayers 返回全部玩家，按积分降序
func (h *Handler) ListPlayers(c *gin.Context) {
	players, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch players"})
		return
	}
	c.JSON(http.StatusOK, players)
}

// GetPlayer 按名字返回玩家，不存在时以0积分创建。排名在Redis不可用时省略。
func (h *Handler) GetPlayer(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name is required"})
		return
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name is too long"})
		return
	}
	p, err := h.repo.GetOrCreate(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch player"})
		return
	}

	resp := gin.H{"player": p}
	if h.board != nil && database.IsRedisHealthy() {
		if rank, err := h.board.Rank(c.Request.Context(), name); err == nil && rank > 0 {
			resp["rank"] = rank
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetRanking 返回排行榜前N名，N由limit参数指定
func (h *Handler) GetRanking(c *gin.Context) {
	if h.board == nil || !database.IsRedisHealthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ranking is temporarily unavailable"})
		return
	}
	limit := h.topSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}
	entries, err := h.board.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ranking"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ranking": entries})
}
