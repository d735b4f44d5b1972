package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageResolver 把内联图片数据换成托管URL
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

type Handler struct {
	repo   *Repository
	images ImageResolver
}

func NewHandler(repo *Repository, images ImageResolver) *Handler {
	return &Handler{repo: repo, images: images}
}

type addItemRequest struct {
	ID            string  `json:"id" binding:"max=64"`
	Name          *string `json:"name" binding:"required,min=1,max=255"`
	Description   *string `json:"description" binding:"required"`
	Category      *string `json:"category" binding:"required"`
	Rarity        *string `json:"rarity" binding:"required"`
	Quantity      *int    `json:"quantity" binding:"omitempty,gte=1"`
	ImageURL      *string `json:"imageUrl" binding:"required"`
	UseButtonText *string `json:"useButtonText"`
}

type setQuantityRequest struct {
	Quantity *json.Number `json:"quantity"`
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		fmt.Printf("读取物品列表失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddItem 添加物品，同名物品合并数量
func (h *Handler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	it := &Item{
		ID:            req.ID,
		Name:          *req.Name,
		Description:   *req.Description,
		Category:      *req.Category,
		Rarity:        *req.Rarity,
		Quantity:      1,
		ImageURL:      *req.ImageURL,
		UseButtonText: req.UseButtonText,
	}
	if req.Quantity != nil {
		it.Quantity = *req.Quantity
	}
	if it.ID == "" {
		it.ID = uuid.Must(uuid.NewV7()).String()
	}
	if h.images != nil {
		it.ImageURL = h.images.Resolve(c.Request.Context(), it.ImageURL)
	}

	result, created, err := h.repo.AddOrMerge(c.Request.Context(), it)
	if errors.Is(err, ErrIDConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Item id is already in use"})
		return
	}
	if err != nil {
		fmt.Printf("添加物品失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Item added successfully", "item": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item quantity updated", "item": result})
}

// SetQuantity 接受数字或数字字符串
func (h *Handler) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity format"})
		return
	}
	if req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing quantity"})
		return
	}
	quantity, err := strconv.Atoi(req.Quantity.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity format"})
		return
	}

	it, err := h.repo.SetQuantity(c.Request.Context(), c.Param("id"), quantity)
	h.writeUpdate(c, it, err, "Item quantity updated", "Item not found")
}

func (h *Handler) Increment(c *gin.Context) {
	it, err := h.repo.Increment(c.Request.Context(), c.Param("id"))
	h.writeUpdate(c, it, err, "Item quantity incremented", "Item not found to increment")
}

func (h *Handler) writeUpdate(c *gin.Context, it *Item, err error, okMsg, notFoundMsg string) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": okMsg, "item": it})
	case errors.Is(err, ErrNegativeQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity cannot be negative"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	default:
		fmt.Printf("更新物品失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
	}
}

// Discard 处理 DELETE /api/items/:id
func (h *Handler) Discard(c *gin.Context) {
	it, err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		fmt.Printf("丢弃物品失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to discard item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Item '%s' discarded successfully", it.Name)})
}
