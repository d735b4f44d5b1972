package discovery

import (
	"context"
	"sync"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
)

// fakeBackend 是内存中的 Backend，可以注入故障和抢先写入
type fakeBackend struct {
	mu       sync.Mutex
	byDex    map[int]*creature.Creature
	byID     map[string]*creature.Creature
	players  map[string]*player.Player
	grants   map[string]bool
	sessions int

	sessionErr error
	findErr    error
	insertErr  error
	addErr     error

	// preempt 非nil时，第一次写入同编号记录前它会被抢先写入
	preempt *creature.Creature
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		byDex:   map[int]*creature.Creature{},
		byID:    map[string]*creature.Creature{},
		players: map[string]*player.Player{},
		grants:  map[string]bool{},
	}
}

func (b *fakeBackend) WithSession(ctx context.Context, fn func(Session) error) error {
	b.mu.Lock()
	b.sessions++
	err := b.sessionErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(fakeSession{b})
}

func (b *fakeBackend) WithTx(ctx context.Context, fn func(Session) error) error {
	return b.WithSession(ctx, fn)
}

func (b *fakeBackend) points(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.players[name]; ok {
		return p.Points
	}
	return -1
}

type fakeSession struct{ b *fakeBackend }

func (s fakeSession) Records() RecordStore { return fakeRecords{s.b} }
func (s fakeSession) Ledger() PlayerLedger { return fakeLedger{s.b} }

type fakeRecords struct{ b *fakeBackend }

func (r fakeRecords) FindByDexIndex(ctx context.Context, dex int) (*creature.Creature, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if r.b.findErr != nil {
		return nil, r.b.findErr
	}
	if c, ok := r.b.byDex[dex]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r fakeRecords) FindByID(ctx context.Context, id string) (*creature.Creature, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if c, ok := r.b.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, creature.ErrNotFound
}

func (r fakeRecords) Insert(ctx context.Context, c *creature.Creature) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	if r.b.insertErr != nil {
		return r.b.insertErr
	}
	if p := r.b.preempt; p != nil && p.DexIndex == c.DexIndex {
		r.b.preempt = nil
		r.b.byDex[p.DexIndex] = p
		r.b.byID[p.ID] = p
	}
	if _, ok := r.b.byDex[c.DexIndex]; ok {
		return creature.ErrDexConflict
	}
	if _, ok := r.b.byID[c.ID]; ok {
		return creature.ErrIDConflict
	}
	cp := *c
	r.b.byDex[c.DexIndex] = &cp
	r.b.byID[c.ID] = &cp
	return nil
}

func (r fakeRecords) Delete(ctx context.Context, id string) (*creature.Creature, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	c, ok := r.b.byID[id]
	if !ok {
		return nil, creature.ErrNotFound
	}
	delete(r.b.byID, id)
	delete(r.b.byDex, c.DexIndex)
	return c, nil
}

type fakeLedger struct{ b *fakeBackend }

func (l fakeLedger) GetOrCreate(ctx context.Context, name string) (*player.Player, error) {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	p, ok := l.b.players[name]
	if !ok {
		p = &player.Player{ID: uint(len(l.b.players) + 1), Name: name}
		l.b.players[name] = p
	}
	cp := *p
	return &cp, nil
}

func (l fakeLedger) AddPoints(ctx context.Context, name string, amount int, ref string) (*player.Player, error) {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	if l.b.addErr != nil {
		return nil, l.b.addErr
	}
	if ref != "" && l.b.grants[ref] {
		return nil, player.ErrAlreadyGranted
	}
	p, ok := l.b.players[name]
	if !ok {
		return nil, player.ErrNotFound
	}
	if ref != "" {
		l.b.grants[ref] = true
	}
	p.Points += amount
	cp := *p
	return &cp, nil
}

func (l fakeLedger) ForgetGrant(ctx context.Context, ref string) error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	delete(l.b.grants, ref)
	return nil
}
