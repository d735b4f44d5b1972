package creature

import (
	"time"

	"gorm.io/datatypes"
)

// dexIndexColumn 是图鉴编号所在的列，同时出现在唯一索引名中
const dexIndexColumn = "pokedex_number"

// Creature 定义了被发现的生物在数据库中的数据结构
// JSON字段名与数据库列名保持一致，沿用旧前端读取的格式
type Creature struct {
	// ID 由客户端提供
	ID string `gorm:"primaryKey;type:varchar(64)" json:"id"`

	Name string `gorm:"not null" json:"name"`

	// DexIndex 是图鉴编号，每个编号最多只能有一条记录
	DexIndex int `gorm:"column:pokedex_number;uniqueIndex:pokemon_pokedex_number_key;not null" json:"pokedex_number"`

	Species     string                      `json:"species"`
	Types       datatypes.JSONSlice[string] `json:"types"`
	Description string                      `json:"description"`
	Height      float64                     `json:"height"`
	Weight      float64                     `json:"weight"`
	HP          int                         `gorm:"column:hp" json:"hp"`
	MaxHP       int                         `gorm:"column:max_hp" json:"max_hp"`

	// Rarity 是稀有度等级 (1-5)
	Rarity   int    `json:"rarity"`
	ImageURL string `gorm:"column:image_url" json:"image_url"`
	Status   string `json:"status"`

	// TrainerName 是首个发现者的名字
	TrainerName string `gorm:"index;not null" json:"trainer_name"`

	CreatedAt time.Time `json:"created_at"`
}

func (Creature) TableName() string { return "pokemon" }
