// Package reward maps a creature's rarity tier to the points awarded for
// discovering it.
package reward

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
)

// defaultPoints 是默认的稀有度积分表
var defaultPoints = map[int]int{
	1: 10,
	2: 25,
	3: 50,
	4: 100,
	5: 200,
}

// Table 是一个启动后只读的稀有度积分表，可以被多个Goroutine并发读取。
type Table struct {
	points map[int]int
}

// Default 返回默认积分表
func Default() Table {
	t, _ := New(defaultPoints)
	return t
}

// New 复制给定映射并构建积分表，积分不能为负数。
func New(points map[int]int) (Table, error) {
	cp := make(map[int]int, len(points))
	for tier, p := range points {
		if p < 0 {
			return Table{}, fmt.Errorf("稀有度 %d 的积分不能为负数: %d", tier, p)
		}
		cp[tier] = p
	}
	return Table{points: cp}, nil
}

// FromConfig 从配置构建积分表，未配置时使用默认表。
func FromConfig(cfg config.RewardConfig) (Table, error) {
	if len(cfg.Points) == 0 {
		return Default(), nil
	}
	points := make(map[int]int, len(cfg.Points))
	for key, p := range cfg.Points {
		tier, err := strconv.Atoi(key)
		if err != nil {
			return Table{}, fmt.Errorf("无法解析稀有度等级 %q: %w", key, err)
		}
		points[tier] = p
	}
	return New(points)
}

// PointsFor 返回给定稀有度的积分，未知稀有度返回0。
func (t Table) PointsFor(tier int) int {
	return t.points[tier]
}

// Tiers 返回按升序排列的已配置稀有度
func (t Table) Tiers() []int {
	tiers := make([]int, 0, len(t.points))
	for tier := range t.points {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)
	return tiers
}
