package creature

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 表示指定ID的生物不存在
	ErrNotFound = errors.New("creature not found")
	// ErrDexConflict 表示该图鉴编号已经被登记
	ErrDexConflict = errors.New("dex index already discovered")
	// ErrIDConflict 表示ID已被另一个图鉴编号占用
	ErrIDConflict = errors.New("creature id already in use")
)

// Repository 封装了pokemon表的读写。db可以是连接池、固定连接或事务。
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByDexIndex 按图鉴编号查找，不存在时返回 (nil, nil)
func (r *Repository) FindByDexIndex(ctx context.Context, dex int) (*Creature, error) {
	var c Creature
	err := r.db.WithContext(ctx).Where("pokedex_number = ?", dex).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("按图鉴编号 %d 查询失败: %w", dex, err)
	}
	return &c, nil
}

// FindByID 按ID查找，不存在时返回 ErrNotFound
func (r *Repository) FindByID(ctx context.Context, id string) (*Creature, error) {
	var c Creature
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询生物 %s 失败: %w", id, err)
	}
	return &c, nil
}

// Insert 写入一条新记录。图鉴编号的唯一索引冲突返回 ErrDexConflict，
// ID冲突返回 ErrIDConflict。
func (r *Repository) Insert(ctx context.Context, c *Creature) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if err == nil {
		return nil
	}
	if v, ok := database.AsUniqueViolation(err); ok {
		if v.Touches(dexIndexColumn) {
			return fmt.Errorf("%w: %d", ErrDexConflict, c.DexIndex)
		}
		if v.Target == "" {
			// 驱动没有给出约束名时，用一次查询区分
			existing, findErr := r.FindByDexIndex(ctx, c.DexIndex)
			if findErr == nil && existing != nil {
				return fmt.Errorf("%w: %d", ErrDexConflict, c.DexIndex)
			}
		}
		return fmt.Errorf("%w: %s", ErrIDConflict, c.ID)
	}
	return fmt.Errorf("写入生物 %s 失败: %w", c.ID, err)
}

// List 返回所有生物，按图鉴编号升序
func (r *Repository) List(ctx context.Context) ([]Creature, error) {
	creatures := []Creature{}
	if err := r.db.WithContext(ctx).Order("pokedex_number ASC").Order("created_at DESC").Find(&creatures).Error; err != nil {
		return nil, fmt.Errorf("查询生物列表失败: %w", err)
	}
	return creatures, nil
}

// Delete 删除指定ID的生物并返回被删除的记录
func (r *Repository) Delete(ctx context.Context, id string) (*Creature, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Creature{})
	if res.Error != nil {
		return nil, fmt.Errorf("删除生物 %s 失败: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return c, nil
}
