package item

import (
	"fmt"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Item{}); err != nil {
		return fmt.Errorf("物品表迁移失败: %w", err)
	}
	fmt.Println("物品数据表已就绪。")
	return nil
}
