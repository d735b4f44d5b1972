package quest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

const (
	defaultSummaryLimit = 10
	maxSummaryLimit     = 100
)

type Handler struct {
	repo  *Repository
	cache *Cache
	now   func() time.Time
}

func NewHandler(repo *Repository, cache *Cache) *Handler {
	return &Handler{repo: repo, cache: cache, now: time.Now}
}

type createQuestRequest struct {
	Title           *string         `json:"title" binding:"required"`
	Description     *string         `json:"description" binding:"required"`
	SummarizedQuest *string         `json:"summarizedQuest" binding:"required"`
	SuggestedReward json.RawMessage `json:"suggestedReward"`
}

func (h *Handler) today() string {
	return h.now().Format(dateLayout)
}

func (h *Handler) cacheUsable() bool {
	return h.cache != nil && database.IsRedisHealthy()
}

// GetToday 返回今天的任务，优先读取Redis缓存
func (h *Handler) GetToday(c *gin.Context) {
	ctx := c.Request.Context()
	date := h.today()

	if h.cacheUsable() {
		q, ok, err := h.cache.Get(ctx, date)
		if err != nil {
			fmt.Printf("读取任务缓存失败: %v\n", err)
		} else if ok {
			c.JSON(http.StatusOK, q)
			return
		}
	}

	q, err := h.repo.ForDate(ctx, date)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "No quest found for today"})
		return
	}
	if err != nil {
		fmt.Printf("读取 %s 的每日任务失败: %v\n", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch daily quest"})
		return
	}

	if h.cacheUsable() {
		if err := h.cache.Set(ctx, q); err != nil {
			fmt.Printf("写入任务缓存失败: %v\n", err)
		}
	}
	c.JSON(http.StatusOK, q)
}

// Create 为今天创建任务
func (h *Handler) Create(c *gin.Context) {
	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: title, description, summarizedQuest"})
		return
	}

	q := &DailyQuest{
		Title:       *req.Title,
		Description: *req.Description,
		Summary:     *req.SummarizedQuest,
		Date:        h.today(),
	}
	if len(req.SuggestedReward) > 0 && string(req.SuggestedReward) != "null" {
		q.SuggestedReward = datatypes.JSON(req.SuggestedReward)
	}

	err := h.repo.Create(c.Request.Context(), q)
	if errors.Is(err, ErrDuplicateDate) {
		c.JSON(http.StatusConflict, gin.H{"error": "A quest for today already exists."})
		return
	}
	if err != nil {
		fmt.Printf("创建每日任务失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create daily quest"})
		return
	}

	if h.cacheUsable() {
		if err := h.cache.Invalidate(c.Request.Context(), q.Date); err != nil {
			fmt.Printf("清除任务缓存失败: %v\n", err)
		}
	}
	c.JSON(http.StatusCreated, q)
}

// Summaries 返回最近的任务摘要，limit非法时使用默认值
func (h *Handler) Summaries(c *gin.Context) {
	limit := defaultSummaryLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = min(n, maxSummaryLimit)
	}

	summaries, err := h.repo.Summaries(c.Request.Context(), limit)
	if err != nil {
		fmt.Printf("读取任务摘要失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quest summaries"})
		return
	}
	c.JSON(http.StatusOK, summaries)
}
