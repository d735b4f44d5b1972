package player

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
	"github.com/SlpAus/creature-dex-backend/internal/platform/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		LogLevel: "silent",
		Sqlite:   config.SqliteConfig{Path: filepath.Join(t.TempDir(), "players.db")},
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	prev := database.RDB
	database.RDB = rdb
	database.SetRedisHealthy(true)
	t.Cleanup(func() { database.RDB = prev })
	return rdb
}

func pointsOf(t *testing.T, db *gorm.DB, name string) int {
	t.Helper()
	var p Player
	if err := db.Where("name = ?", name).Take(&p).Error; err != nil {
		t.Fatalf("read player %s: %v", name, err)
	}
	return p.Points
}

func grantExists(t *testing.T, db *gorm.DB, ref string) bool {
	t.Helper()
	var count int64
	if err := db.Model(&RewardGrant{}).Where("ref = ?", ref).Count(&count).Error; err != nil {
		t.Fatalf("count grants: %v", err)
	}
	return count > 0
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "Ash")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.Points != 0 {
		t.Fatalf("new player points = %d, want 0", first.Points)
	}
	second, err := repo.GetOrCreate(ctx, "Ash")
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same player, got ids %d and %d", first.ID, second.ID)
	}

	players, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("players = %d, want 1", len(players))
	}
}

func TestNamesAreCaseSensitive(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetOrCreate(ctx, "ash"); err != nil {
		t.Fatal(err)
	}
	players, _ := repo.List(ctx)
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
}

func TestAddPointsAccumulates(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	ctx := context.Background()
	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.AddPoints(ctx, "Ash", 10, "c-1"); err != nil {
		t.Fatalf("add 10: %v", err)
	}
	p, err := repo.AddPoints(ctx, "Ash", 25, "c-2")
	if err != nil {
		t.Fatalf("add 25: %v", err)
	}
	if p.Points != 35 {
		t.Fatalf("points = %d, want 35", p.Points)
	}
}

func TestAddPointsRejectsRepeatedRef(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()
	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.AddPoints(ctx, "Ash", 50, "c-1"); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	_, err := repo.AddPoints(ctx, "Ash", 50, "c-1")
	if !errors.Is(err, ErrAlreadyGranted) {
		t.Fatalf("err = %v, want ErrAlreadyGranted", err)
	}

	if got := pointsOf(t, db, "Ash"); got != 50 {
		t.Fatalf("points = %d, want 50", got)
	}
	if !grantExists(t, db, "c-1") {
		t.Fatal("grant c-1 should be recorded")
	}
}

func TestAddPointsForUnknownPlayerLeavesNoGrant(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	_, err := repo.AddPoints(ctx, "Nobody", 10, "c-9")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if grantExists(t, db, "c-9") {
		t.Fatal("grant must roll back with the failed update")
	}
}

func TestAddPointsRejectsNegativeAmount(t *testing.T) {
	repo := NewRepository(openTestDB(t), nil)
	if _, err := repo.AddPoints(context.Background(), "Ash", -5, ""); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("err = %v, want ErrNegativeAmount", err)
	}
}

func TestConcurrentAddPointsLosesNoUpdates(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()
	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AddPoints(ctx, "Ash", 10, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("add points: %v", err)
	}

	if got := pointsOf(t, db, "Ash"); got != workers*10 {
		t.Fatalf("points = %d, want %d", got, workers*10)
	}
}

func TestForgetGrantKeepsPoints(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	ctx := context.Background()
	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddPoints(ctx, "Ash", 100, "c-1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.ForgetGrant(ctx, "c-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}

	if grantExists(t, db, "c-1") {
		t.Fatal("grant should be gone")
	}
	if got := pointsOf(t, db, "Ash"); got != 100 {
		t.Fatalf("points = %d, want 100", got)
	}
}

func TestLeaderboardFollowsRewards(t *testing.T) {
	rdb := startRedis(t)
	db := openTestDB(t)
	board := NewLeaderboard(rdb)
	repo := NewRepository(db, board)
	ctx := context.Background()

	for _, name := range []string{"Ash", "Misty"} {
		if _, err := repo.GetOrCreate(ctx, name); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.AddPoints(ctx, "Ash", 25, "c-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddPoints(ctx, "Misty", 200, "c-2"); err != nil {
		t.Fatal(err)
	}

	top, err := board.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Name != "Misty" || top[0].Points != 200 || top[1].Name != "Ash" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	rank, err := board.Rank(ctx, "Ash")
	if err != nil || rank != 2 {
		t.Fatalf("rank = %d, %v; want 2", rank, err)
	}
	rank, _ = board.Rank(ctx, "Brock")
	if rank != 0 {
		t.Fatalf("unranked player rank = %d, want 0", rank)
	}
}

func TestWarmupCacheReplacesStaleRanking(t *testing.T) {
	rdb := startRedis(t)
	db := openTestDB(t)
	board := NewLeaderboard(rdb)
	repo := NewRepository(db, nil)
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, "Ash"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.AddPoints(ctx, "Ash", 50, ""); err != nil {
		t.Fatal(err)
	}
	rdb.ZAdd(ctx, RankingKey, redis.Z{Score: 999, Member: "Ghost"})

	if err := WarmupCache(ctx, db, board); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	top, _ := board.Top(ctx, 10)
	if len(top) != 1 || top[0].Name != "Ash" || top[0].Points != 50 {
		t.Fatalf("unexpected ranking after warmup: %+v", top)
	}
}

func TestRebuildSwapsInNewRanking(t *testing.T) {
	rdb := startRedis(t)
	board := NewLeaderboard(rdb)
	ctx := context.Background()
	rdb.ZAdd(ctx, RankingKey, redis.Z{Score: 999, Member: "Ghost"}, redis.Z{Score: 5, Member: "Ash"})

	if err := board.Rebuild(ctx, []Player{{Name: "Ash", Points: 40}, {Name: "Misty", Points: 70}}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	top, _ := board.Top(ctx, 10)
	if len(top) != 2 || top[0].Name != "Misty" || top[1].Name != "Ash" || top[1].Points != 40 {
		t.Fatalf("unexpected ranking after rebuild: %+v", top)
	}
	if n, _ := rdb.Exists(ctx, rebuildKey).Result(); n != 0 {
		t.Fatal("temporary rebuild key left behind")
	}

	if err := board.Rebuild(ctx, nil); err != nil {
		t.Fatalf("rebuild empty: %v", err)
	}
	if n, _ := rdb.Exists(ctx, RankingKey).Result(); n != 0 {
		t.Fatal("empty rebuild should clear the ranking")
	}
}

func TestRebuildFailureKeepsOldRanking(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	board := NewLeaderboard(rdb)
	ctx := context.Background()
	rdb.ZAdd(ctx, RankingKey, redis.Z{Score: 30, Member: "Brock"})

	mr.SetError("ERR server unavailable")
	if err := board.Rebuild(ctx, []Player{{Name: "Ash", Points: 10}}); err == nil {
		t.Fatal("expected rebuild to fail")
	}
	mr.SetError("")

	top, err := board.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 || top[0].Name != "Brock" || top[0].Points != 30 {
		t.Fatalf("old ranking changed after failed rebuild: %+v", top)
	}
}

func TestHandlerGetRanking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := startRedis(t)
	board := NewLeaderboard(rdb)
	ctx := context.Background()
	for name, pts := range map[string]int{"Ash": 10, "Misty": 30, "Brock": 20} {
		if err := board.Add(ctx, name, pts); err != nil {
			t.Fatal(err)
		}
	}

	router := gin.New()
	h := NewHandler(NewRepository(openTestDB(t), board), board, 10)
	router.GET("/api/players/ranking", h.GetRanking)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/ranking?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Ranking []RankEntry `json:"ranking"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Ranking) != 2 || body.Ranking[0].Name != "Misty" || body.Ranking[1].Name != "Brock" {
		t.Fatalf("unexpected ranking: %+v", body.Ranking)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/ranking?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestNilLeaderboardIsUnavailable(t *testing.T) {
	var board *Leaderboard
	if err := board.Add(context.Background(), "Ash", 1); !errors.Is(err, ErrLeaderboardUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if NewLeaderboard(nil) != nil {
		t.Fatal("expected nil leaderboard without a client")
	}
}

func TestHandlerGetPlayer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	repo := NewRepository(db, nil)
	if _, err := repo.GetOrCreate(context.Background(), "Ash"); err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	h := NewHandler(repo, nil, 10)
	router.GET("/api/players/:name", h.GetPlayer)
	router.GET("/api/players/ranking", h.GetRanking)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/Ash", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Player Player `json:"player"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Player.Name != "Ash" {
		t.Fatalf("name = %q", body.Player.Name)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/Brock", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := pointsOf(t, db, "Brock"); got != 0 {
		t.Fatalf("Brock points = %d, want 0", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/"+strings.Repeat("a", MaxNameLength+1), nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("overlong name status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/players/ranking", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ranking without redis status = %d, want 503", w.Code)
	}
}
