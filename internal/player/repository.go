package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound       = errors.New("player not found")
	ErrAlreadyGranted = errors.New("reward already granted")
	ErrNegativeAmount = errors.New("points amount must not be negative")
)

// Repository 是玩家积分账本。db可以是连接池、固定连接或事务。
type Repository struct {
	db    *gorm.DB
	board *Leaderboard
}

// NewRepository 创建账本。board为nil时不维护Redis排行榜，由调用方在合适的时机调用 Leaderboard.Follow。
func NewRepository(db *gorm.DB, board *Leaderboard) *Repository {
	return &Repository{db: db, board: board}
}

// GetOrCreate 返回指定名字的玩家，不存在时以0积分创建。
// 并发创建同名玩家时依赖唯一索引，只会有一条记录。
func (r *Repository) GetOrCreate(ctx context.Context, name string) (*Player, error) {
	db := r.db.WithContext(ctx)

	newPlayer := Player{Name: name}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&newPlayer).Error
	if err != nil {
		return nil, fmt.Errorf("无法创建玩家 %s: %w", name, err)
	}

	var p Player
	if err := db.Where("name = ?", name).Take(&p).Error; err != nil {
		return nil, fmt.Errorf("无法读取玩家 %s: %w", name, err)
	}
	return &p, nil
}

// AddPoints 以单条原子更新 (points = points + ?) 为玩家加分，并返回更新后的玩家。
// ref 非空时，发放记录和加分在同一事务中提交，同一ref第二次调用返回 ErrAlreadyGranted。
func (r *Repository) AddPoints(ctx context.Context, name string, amount int, ref string) (*Player, error) {
	if amount < 0 {
		return nil, ErrNegativeAmount
	}

	var updated Player
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ref != "" {
			grant := RewardGrant{Ref: ref, PlayerName: name, Points: amount}
			if err := tx.Create(&grant).Error; err != nil {
				if database.IsUniqueViolation(err) {
					return ErrAlreadyGranted
				}
				return fmt.Errorf("无法记录积分发放 %s: %w", ref, err)
			}
		}

		res := tx.Model(&Player{}).Where("name = ?", name).Updates(map[string]interface{}{
			"points":     gorm.Expr("points + ?", amount),
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("无法为玩家 %s 加分: %w", name, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("name = ?", name).Take(&updated).Error
	})
	if err != nil {
		return nil, err
	}

	r.board.Follow(ctx, name, amount)
	return &updated, nil
}

// ForgetGrant 删除ref的发放记录，不会扣回积分
func (r *Repository) ForgetGrant(ctx context.Context, ref string) error {
	if err := r.db.WithContext(ctx).Where("ref = ?", ref).Delete(&RewardGrant{}).Error; err != nil {
		return fmt.Errorf("无法删除积分发放记录 %s: %w", ref, err)
	}
	return nil
}

// List 返回所有玩家，按积分从高到低排序
func (r *Repository) List(ctx context.Context) ([]Player, error) {
	players := []Player{}
	if err := r.db.WithContext(ctx).Order("points DESC").Order("name ASC").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("无法读取玩家列表: %w", err)
	}
	return players, nil
}
