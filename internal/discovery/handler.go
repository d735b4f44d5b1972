package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/gin-gonic/gin"
)

// ImageResolver 把内联图片数据换成托管URL，其它引用原样返回
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

type Handler struct {
	reconciler *Reconciler
	images     ImageResolver
}

func NewHandler(reconciler *Reconciler, images ImageResolver) *Handler {
	return &Handler{reconciler: reconciler, images: images}
}

type discoverRequest struct {
	Candidate
	TrainerName string `json:"trainerName"`
}

// Discover 处理 POST /api/pokemon
func (h *Handler) Discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	// 先校验再上传图片，缺字段的请求不应产生上传
	if err := req.Candidate.Validate(req.TrainerName); err != nil {
		writeError(c, err)
		return
	}
	if h.images != nil {
		resolved := h.images.Resolve(c.Request.Context(), *req.ImageURL)
		req.ImageURL = &resolved
	}

	out, err := h.reconciler.Reconcile(c.Request.Context(), req.Candidate, req.TrainerName)
	if err != nil {
		writeError(c, err)
		return
	}

	if out.Kind == AlreadyDiscovered {
		c.JSON(http.StatusOK, gin.H{
			"status":                out.Kind.String(),
			"message":               fmt.Sprintf("Pokemon %s was already discovered by %s.", out.Creature.Name, out.DiscoveredBy),
			"pokemon":               out.Creature,
			"discovered_by_trainer": out.DiscoveredBy,
		})
		return
	}

	resp := gin.H{
		"status":        out.Kind.String(),
		"message":       "Pokemon added successfully and points awarded!",
		"pokemon":       out.Creature,
		"player":        out.Player,
		"pointsAwarded": out.Points,
		"rewardApplied": out.RewardApplied,
	}
	if out.RewardErr != nil {
		resp["message"] = "Pokemon added, but points could not be awarded. Retry the reward later."
		resp["rewardError"] = out.RewardErr.Error()
	}
	c.JSON(http.StatusCreated, resp)
}

// RetryReward 处理 POST /api/pokemon/:id/reward
func (h *Handler) RetryReward(c *gin.Context) {
	p, err := h.reconciler.RetryReward(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reward applied", "player": p})
}

// Release 处理 DELETE /api/pokemon/:id
func (h *Handler) Release(c *gin.Context) {
	released, err := h.reconciler.Release(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pokemon released successfully", "pokemon": released})
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	var terr *TransientError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error()}
		if len(verr.Missing) > 0 {
			body["missing"] = verr.Missing
		}
		if len(verr.Invalid) > 0 {
			body["invalid"] = verr.Invalid
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, ErrIdentifierTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Pokemon id is already in use"})
	case errors.Is(err, player.ErrAlreadyGranted):
		c.JSON(http.StatusConflict, gin.H{"error": "Reward was already granted"})
	case errors.Is(err, creature.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Pokemon not found"})
	case errors.As(err, &terr):
		fmt.Printf("发现请求暂时失败: %v\n", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable", "retryable": true})
	default:
		fmt.Printf("发现请求失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
