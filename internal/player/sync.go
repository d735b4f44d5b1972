package player

import (
	"context"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/SlpAus/creature-dex-backend/pkg/lifecycle"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// WarmupCache 从数据库读取全部玩家并重建Redis排行榜
func WarmupCache(ctx context.Context, db *gorm.DB, board *Leaderboard) error {
	if board == nil {
		return nil
	}
	players, err := NewRepository(db, nil).List(ctx)
	if err != nil {
		return err
	}
	if err := board.Rebuild(ctx, players); err != nil {
		return err
	}
	fmt.Printf("排行榜已从数据库加载 %d 名玩家。\n", len(players))
	return nil
}

// StartResyncScheduler 按cron表达式定期用数据库重建排行榜，修正尽力同步时遗漏的增量。
// 重建期间提交的加分在排行榜上可能暂时丢失或重复，见 Leaderboard.Rebuild。
// graceful 关闭后不再调度新任务并等待正在执行的任务；forceful 关闭会中断正在执行的任务。
// 会阻塞直到graceful被关闭。
func StartResyncScheduler(graceful, forceful *lifecycle.Handle, spec string, db *gorm.DB, board *Leaderboard) error {
	if board == nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if !database.IsRedisHealthy() {
			return
		}
		if err := WarmupCache(forceful.Ctx(), db, board); err != nil {
			fmt.Printf("排行榜定时重建失败: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("无效的排行榜同步计划 %q: %w", spec, err)
	}

	c.Start()
	fmt.Printf("排行榜同步任务已启动 (%s)\n", spec)

	<-graceful.Done()
	<-c.Stop().Done()
	fmt.Println("排行榜同步任务已停止。")
	return nil
}
