package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("item not found")
	ErrIDConflict       = errors.New("item id already in use")
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)

// mergeAttempts 是同名物品并发创建时的最大尝试次数
const mergeAttempts = 2

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List 返回全部物品，最新的在前
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	items := []Item{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("无法读取物品列表: %w", err)
	}
	return items, nil
}

// AddOrMerge 按名字合并物品：已存在时数量原子累加并刷新其它字段，否则插入新行。
// created 报告是否插入了新行。
func (r *Repository) AddOrMerge(ctx context.Context, it *Item) (result *Item, created bool, err error) {
	for attempt := 1; attempt <= mergeAttempts; attempt++ {
		result, created, err = r.addOrMergeOnce(ctx, it)
		if err == nil {
			return result, created, nil
		}
		v, ok := database.AsUniqueViolation(err)
		if !ok {
			return nil, false, err
		}
		if !v.Touches("name") {
			return nil, false, fmt.Errorf("%w: %s", ErrIDConflict, it.ID)
		}
		// 另一个请求刚刚插入了同名物品，下一轮会走合并分支
	}
	return nil, false, err
}

func (r *Repository) addOrMergeOnce(ctx context.Context, it *Item) (*Item, bool, error) {
	var result Item
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Item{}).Where("name = ?", it.Name).Updates(map[string]interface{}{
			"quantity":        gorm.Expr("quantity + ?", it.Quantity),
			"description":     it.Description,
			"category":        it.Category,
			"rarity":          it.Rarity,
			"image_url":       it.ImageURL,
			"use_button_text": it.UseButtonText,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("name = ?", it.Name).Take(&result).Error
		}

		fresh := *it
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		result = fresh
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// SetQuantity 把物品数量设为指定值
func (r *Repository) SetQuantity(ctx context.Context, id string, quantity int) (*Item, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	return r.update(ctx, id, quantity)
}

// Increment 把物品数量原子地加1
func (r *Repository) Increment(ctx context.Context, id string) (*Item, error) {
	return r.update(ctx, id, gorm.Expr("quantity + 1"))
}

func (r *Repository) update(ctx context.Context, id string, quantity interface{}) (*Item, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&Item{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return nil, fmt.Errorf("无法更新物品 %s 的数量: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var it Item
	if err := db.Where("id = ?", id).Take(&it).Error; err != nil {
		return nil, fmt.Errorf("无法读取物品 %s: %w", id, err)
	}
	return &it, nil
}

// Delete 丢弃物品并返回被删除的记录
func (r *Repository) Delete(ctx context.Context, id string) (*Item, error) {
	db := r.db.WithContext(ctx)

	var it Item
	err := db.Where("id = ?", id).Take(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取物品 %s: %w", id, err)
	}

	res := db.Where("id = ?", id).Delete(&Item{})
	if res.Error != nil {
		return nil, fmt.Errorf("无法删除物品 %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &it, nil
}
