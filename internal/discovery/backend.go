package discovery

import (
	"context"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
	"gorm.io/gorm"
)

// RecordStore 是生物记录的存储。Insert 在图鉴编号已存在时必须返回
// creature.ErrDexConflict，ID冲突时返回 creature.ErrIDConflict。
type RecordStore interface {
	FindByDexIndex(ctx context.Context, dex int) (*creature.Creature, error)
	FindByID(ctx context.Context, id string) (*creature.Creature, error)
	Insert(ctx context.Context, c *creature.Creature) error
	Delete(ctx context.Context, id string) (*creature.Creature, error)
}

// PlayerLedger 是玩家积分账本。AddPoints 必须是单条原子加法更新，
// 对同一个ref重复调用返回 player.ErrAlreadyGranted。
type PlayerLedger interface {
	GetOrCreate(ctx context.Context, name string) (*player.Player, error)
	AddPoints(ctx context.Context, name string, amount int, ref string) (*player.Player, error)
	ForgetGrant(ctx context.Context, ref string) error
}

// Session 是一次调用期间持有的存储句柄
type Session interface {
	Records() RecordStore
	Ledger() PlayerLedger
}

// Backend 负责获取和释放存储句柄。fn 返回后句柄一定会被释放。
type Backend interface {
	// WithSession 固定一条连接执行fn，每条语句各自提交
	WithSession(ctx context.Context, fn func(Session) error) error
	// WithTx 在一个事务中执行fn，fn返回错误时回滚
	WithTx(ctx context.Context, fn func(Session) error) error
}

// GormBackend 是基于GORM连接池的 Backend
type GormBackend struct {
	db    *gorm.DB
	board *player.Leaderboard
}

func NewGormBackend(db *gorm.DB, board *player.Leaderboard) *GormBackend {
	return &GormBackend{db: db, board: board}
}

// WithSession 在连接释放后才同步排行榜，会话期间不占用Redis。
// fn 返回错误时已经提交的加分仍会同步。
func (b *GormBackend) WithSession(ctx context.Context, fn func(Session) error) error {
	var pending []pointDelta
	err := b.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return fn(&gormSession{db: conn, pending: &pending})
	})
	for _, d := range pending {
		b.board.Follow(ctx, d.name, d.amount)
	}
	return err
}

func (b *GormBackend) WithTx(ctx context.Context, fn func(Session) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务内不同步排行榜，提交前的增量可能被回滚
		return fn(&gormSession{db: tx})
	})
}

type pointDelta struct {
	name   string
	amount int
}

type gormSession struct {
	db      *gorm.DB
	pending *[]pointDelta
}

func (s *gormSession) Records() RecordStore {
	return creature.NewRepository(s.db)
}

func (s *gormSession) Ledger() PlayerLedger {
	repo := player.NewRepository(s.db, nil)
	if s.pending == nil {
		return repo
	}
	return &recordingLedger{Repository: repo, pending: s.pending}
}

// recordingLedger 记下成功提交的加分，留给会话结束后同步
type recordingLedger struct {
	*player.Repository
	pending *[]pointDelta
}

func (l *recordingLedger) AddPoints(ctx context.Context, name string, amount int, ref string) (*player.Player, error) {
	p, err := l.Repository.AddPoints(ctx, name, amount, ref)
	if err == nil {
		*l.pending = append(*l.pending, pointDelta{name: name, amount: amount})
	}
	return p, err
}
