package player

import "time"

// MaxNameLength 与 players.name 列的长度一致
const MaxNameLength = 255

// Player 定义了玩家在数据库中的持久化模型。
type Player struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name 是玩家名，区分大小写且唯一
	Name string `gorm:"type:varchar(255);uniqueIndex:players_name_key;not null" json:"name"`

	// Points 只会通过奖励路径增加
	Points int `gorm:"not null;default:0" json:"points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Player) TableName() string { return "players" }

// RewardGrant 记录一次已经生效的积分发放，Ref 通常是生物ID。
// 同一个 Ref 只能发放一次，重试不会重复加分。
type RewardGrant struct {
	Ref        string    `gorm:"primaryKey;type:varchar(64)"`
	PlayerName string    `gorm:"type:varchar(255);index;not null"`
	Points     int       `gorm:"not null"`
	CreatedAt  time.Time
}

func (RewardGrant) TableName() string { return "reward_grants" }
