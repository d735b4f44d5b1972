package startup

import (
	"context"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/item"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/SlpAus/creature-dex-backend/internal/quest"
	"gorm.io/gorm"
)

// InitializeApplication 是应用启动时执行的总入口：建表并预热缓存
func InitializeApplication(ctx context.Context, db *gorm.DB, board *player.Leaderboard) error {
	fmt.Println("开始应用初始化...")

	migrations := []func(*gorm.DB) error{
		creature.Migrate,
		player.Migrate,
		item.Migrate,
		quest.Migrate,
	}
	for _, migrate := range migrations {
		if err := migrate(db); err != nil {
			return err
		}
	}

	if err := RebuildCache(ctx, db, board); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时热重建Redis缓存，Redis重启后由健康检查调用
func RebuildCache(ctx context.Context, db *gorm.DB, board *player.Leaderboard) error {
	if board == nil {
		return nil
	}
	fmt.Println("开始缓存热重建...")
	if err := player.WarmupCache(ctx, db, board); err != nil {
		return fmt.Errorf("排行榜重建失败: %w", err)
	}
	fmt.Println("缓存热重建完成。")
	return nil
}
