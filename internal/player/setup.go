package player

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate 创建玩家表和积分发放记录表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Player{}, &RewardGrant{}); err != nil {
		return fmt.Errorf("玩家表迁移失败: %w", err)
	}
	fmt.Println("玩家数据表已就绪。")
	return nil
}
