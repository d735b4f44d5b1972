package item

import "time"

// Item 是背包中的一种物品，同名物品合并为一行
type Item struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `gorm:"type:varchar(255);uniqueIndex:items_name_key;not null" json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Rarity        string    `json:"rarity"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	ImageURL      string    `gorm:"column:image_url" json:"image_url"`
	UseButtonText *string   `gorm:"column:use_button_text" json:"use_button_text"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Item) TableName() string { return "items" }
