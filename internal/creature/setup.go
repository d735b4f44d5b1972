package creature

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate 负责自动迁移数据库表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Creature{}); err != nil {
		return fmt.Errorf("无法迁移pokemon表: %w", err)
	}
	fmt.Println("Pokemon数据库表迁移成功。")
	return nil
}
