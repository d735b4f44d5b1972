package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	prev := database.RDB
	database.RDB = rdb
	database.SetRedisHealthy(true)
	t.Cleanup(func() { database.RDB = prev })
	return mr, rdb
}

func TestSessionSyncsLeaderboardAfterRelease(t *testing.T) {
	mr, rdb := startRedis(t)
	db := openTestDB(t)
	backend := NewGormBackend(db, player.NewLeaderboard(rdb))
	ctx := context.Background()

	err := backend.WithSession(ctx, func(s Session) error {
		if _, err := s.Ledger().GetOrCreate(ctx, "Ash"); err != nil {
			return err
		}
		if _, err := s.Ledger().AddPoints(ctx, "Ash", 50, "c-1"); err != nil {
			return err
		}
		if _, err := mr.ZScore(player.RankingKey, "Ash"); err == nil {
			t.Error("leaderboard updated while the connection was still held")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got, err := mr.ZScore(player.RankingKey, "Ash"); err != nil || got != 50 {
		t.Fatalf("Ash score = %v (%v), want 50", got, err)
	}
}

func TestSessionSyncsCommittedPointsEvenOnError(t *testing.T) {
	mr, rdb := startRedis(t)
	db := openTestDB(t)
	backend := NewGormBackend(db, player.NewLeaderboard(rdb))
	ctx := context.Background()
	boom := errors.New("boom")

	err := backend.WithSession(ctx, func(s Session) error {
		if _, err := s.Ledger().GetOrCreate(ctx, "Misty"); err != nil {
			return err
		}
		if _, err := s.Ledger().AddPoints(ctx, "Misty", 25, "c-2"); err != nil {
			return err
		}
		// 重复的ref不会再计一次
		if _, err := s.Ledger().AddPoints(ctx, "Misty", 25, "c-2"); !errors.Is(err, player.ErrAlreadyGranted) {
			t.Errorf("repeated ref: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("session error = %v, want boom", err)
	}
	if got := playerPoints(t, db, "Misty"); got != 25 {
		t.Fatalf("Misty points = %d, want 25", got)
	}
	if got, err := mr.ZScore(player.RankingKey, "Misty"); err != nil || got != 25 {
		t.Fatalf("Misty score = %v (%v), want 25", got, err)
	}
}

func TestTxDoesNotTouchLeaderboard(t *testing.T) {
	mr, rdb := startRedis(t)
	db := openTestDB(t)
	backend := NewGormBackend(db, player.NewLeaderboard(rdb))
	ctx := context.Background()

	err := backend.WithTx(ctx, func(s Session) error {
		if _, err := s.Ledger().GetOrCreate(ctx, "Brock"); err != nil {
			return err
		}
		_, err := s.Ledger().AddPoints(ctx, "Brock", 10, "c-3")
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if mr.Exists(player.RankingKey) {
		t.Fatal("transactions must not write the leaderboard")
	}
}
