package quest

import (
	"time"

	"gorm.io/datatypes"
)

// dateLayout 是 quest_date 列使用的日期格式
const dateLayout = "2006-01-02"

// DailyQuest 是某一天的每日任务，每个日期最多一条
type DailyQuest struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"column:quest_title;not null" json:"quest_title"`
	Description     string         `gorm:"column:quest_description" json:"quest_description"`
	Summary         string         `gorm:"column:quest_summary" json:"quest_summary"`
	Date            string         `gorm:"column:quest_date;type:varchar(10);uniqueIndex:daily_quests_quest_date_key;not null" json:"quest_date"`
	SuggestedReward datatypes.JSON `gorm:"column:suggested_reward" json:"suggested_reward"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (DailyQuest) TableName() string { return "daily_quests" }
