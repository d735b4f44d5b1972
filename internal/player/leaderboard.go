package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// RankingKey 是排行榜在Redis中的有序集合键
const RankingKey = "player:ranking"

const rebuildKey = RankingKey + ":rebuild"

// ErrLeaderboardUnavailable 表示没有可用的Redis客户端
var ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")

// RankEntry 是排行榜中的一行
type RankEntry struct {
	Rank   int64  `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Leaderboard 是玩家积分的Redis有序集合缓存。nil接收者上的方法都是安全的。
type Leaderboard struct {
	rdb *redis.Client
}

// NewLeaderboard 返回一个排行榜；rdb为nil时返回nil
func NewLeaderboard(rdb *redis.Client) *Leaderboard {
	if rdb == nil {
		return nil
	}
	return &Leaderboard{rdb: rdb}
}

// Add 为玩家在排行榜上增加分数
func (b *Leaderboard) Add(ctx context.Context, name string, points int) error {
	if b == nil {
		return ErrLeaderboardUnavailable
	}
	return b.rdb.ZIncrBy(ctx, RankingKey, float64(points), name).Err()
}

// Follow 把一笔已经提交的加分同步到排行榜。数据库是事实来源，
// 失败只记录日志，由定时重建修正。nil排行榜、非正数和Redis不可用时什么也不做。
func (b *Leaderboard) Follow(ctx context.Context, name string, amount int) {
	if b == nil || amount <= 0 || !database.IsRedisHealthy() {
		return
	}
	if err := b.Add(ctx, name, amount); err != nil {
		fmt.Printf("排行榜同步失败 (玩家 %s): %v\n", name, err)
	}
}

// Top 返回前n名，分数相同时按Redis的字典序倒序
func (b *Leaderboard) Top(ctx context.Context, n int) ([]RankEntry, error) {
	if b == nil {
		return nil, ErrLeaderboardUnavailable
	}
	if n <= 0 {
		return []RankEntry{}, nil
	}
	members, err := b.rdb.ZRevRangeWithScores(ctx, RankingKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("无法读取排行榜: %w", err)
	}

	entries := make([]RankEntry, 0, len(members))
	for i, m := range members {
		name, _ := m.Member.(string)
		entries = append(entries, RankEntry{Rank: int64(i + 1), Name: name, Points: int(m.Score)})
	}
	return entries, nil
}

// Rank 返回玩家的名次（从1开始），不在榜上时返回0
func (b *Leaderboard) Rank(ctx context.Context, name string) (int64, error) {
	if b == nil {
		return 0, ErrLeaderboardUnavailable
	}
	rank, err := b.rdb.ZRevRank(ctx, RankingKey, name).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

// Rebuild 用给定的玩家列表整体替换排行榜。新榜先写入临时键再RENAME，
// 失败时旧榜保持不变。读取玩家列表与RENAME之间提交的加分可能丢失，
// 也可能被计两次，下一轮重建会修正。
func (b *Leaderboard) Rebuild(ctx context.Context, players []Player) error {
	if b == nil {
		return ErrLeaderboardUnavailable
	}
	if len(players) == 0 {
		if err := b.rdb.Del(ctx, RankingKey).Err(); err != nil {
			return fmt.Errorf("清空排行榜失败: %w", err)
		}
		return nil
	}

	members := make([]redis.Z, 0, len(players))
	for _, p := range players {
		members = append(members, redis.Z{Score: float64(p.Points), Member: p.Name})
	}
	pipe := b.rdb.TxPipeline()
	pipe.Del(ctx, rebuildKey)
	pipe.ZAdd(ctx, rebuildKey, members...)
	pipe.Rename(ctx, rebuildKey, RankingKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("重建排行榜失败: %w", err)
	}
	return nil
}
