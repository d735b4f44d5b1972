package quest

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&DailyQuest{}); err != nil {
		return fmt.Errorf("每日任务表迁移失败: %w", err)
	}
	fmt.Println("每日任务数据表已就绪。")
	return nil
}
