package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/SlpAus/creature-dex-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// RebuildFunc 从数据库重建Redis中的缓存
type RebuildFunc func(ctx context.Context) error

// Checker 定期检查Redis，发现重启后重建缓存，并把可用性同步到 database 包。
type Checker struct {
	rdb     *redis.Client
	rebuild RebuildFunc
	tracker *Tracker
}

func NewChecker(rdb *redis.Client, rebuild RebuildFunc) *Checker {
	return &Checker{rdb: rdb, rebuild: rebuild, tracker: NewTracker("")}
}

// State 返回当前的健康状态
func (c *Checker) State() State {
	return c.tracker.State()
}

// RunID 从Redis服务器信息中提取run_id
func (c *Checker) RunID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := c.rdb.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("无法在Redis INFO中找到run_id")
	}
	return matches[1], nil
}

// InitializeRunID 在应用启动时执行一次，记录初始的run_id
func (c *Checker) InitializeRunID(ctx context.Context) error {
	fmt.Println("正在获取初始Redis Run ID...")
	runID, err := c.RunID(ctx)
	if err != nil {
		return fmt.Errorf("无法在启动时获取Redis Run ID: %w", err)
	}
	c.tracker = NewTracker(runID)
	fmt.Printf("获取初始Redis Run ID成功: %s\n", runID)
	return nil
}

// PerformCheck 执行一次完整的健康检查和可能的修复操作
func (c *Checker) PerformCheck(ctx context.Context) {
	runID, err := c.RunID(ctx)
	connected := err == nil

	if c.tracker.Assess(connected, runID) {
		fmt.Println("健康检查: 正在触发缓存热重建...")
		rebuildErr := c.rebuild(ctx)
		if rebuildErr != nil {
			fmt.Printf("健康检查错误: 缓存热重建失败: %v\n", rebuildErr)
		}
		after, err := c.RunID(ctx)
		c.tracker.MarkRebuildComplete(rebuildErr == nil && err == nil, after)
	}

	database.SetRedisHealthy(c.tracker.State() == StateHealthy)
}

// Run 阻塞式地循环检查，直到handle被关闭
func (c *Checker) Run(handle *lifecycle.Handle) {
	fmt.Println("Redis健康检查器已启动。")
	for {
		if err := handle.Sleep(checkInterval); err != nil {
			fmt.Println("Redis健康检查器已停止。")
			return
		}
		c.PerformCheck(handle.Ctx())
	}
}
