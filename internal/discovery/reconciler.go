// Package discovery 决定一次"发现"是新发现还是重复发现，并为新发现的训练家发放积分。
//
// 同一图鉴编号的并发请求不在进程内加锁，完全依赖存储层的唯一索引：
// 写入被唯一索引拒绝的一方不会得到积分，而是读取胜出的记录并返回 AlreadyDiscovered。
package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
)

// RewardPolicy 按稀有度返回积分，未知稀有度返回0
type RewardPolicy interface {
	PointsFor(tier int) int
}

type Reconciler struct {
	backend Backend
	policy  RewardPolicy
}

func NewReconciler(backend Backend, policy RewardPolicy) *Reconciler {
	return &Reconciler{backend: backend, policy: policy}
}

// Reconcile 处理一次发现请求。
//
// 返回的error只可能是 *ValidationError、*TransientError 或 ErrIdentifierTaken；
// 积分发放失败不作为error返回，而是记录在 Outcome.RewardErr 中。
func (r *Reconciler) Reconcile(ctx context.Context, cand Candidate, trainerName string) (Outcome, error) {
	if err := cand.Validate(trainerName); err != nil {
		return Outcome{}, err
	}
	record := cand.toCreature(trainerName)

	var out Outcome
	err := r.backend.WithSession(ctx, func(s Session) error {
		records := s.Records()

		existing, err := records.FindByDexIndex(ctx, record.DexIndex)
		if err != nil {
			return transient("find_by_dex_index", err)
		}
		if existing != nil {
			out = alreadyDiscovered(existing)
			return nil
		}

		ledger := s.Ledger()
		p, err := ledger.GetOrCreate(ctx, record.TrainerName)
		if err != nil {
			return transient("get_or_create_player", err)
		}
		points := r.policy.PointsFor(record.Rarity)

		if err := records.Insert(ctx, record); err != nil {
			switch {
			case errors.Is(err, creature.ErrDexConflict):
				// 在查询和写入之间被别人抢先登记
				winner, findErr := records.FindByDexIndex(ctx, record.DexIndex)
				if findErr != nil {
					return transient("find_by_dex_index", findErr)
				}
				if winner == nil {
					return transient("find_by_dex_index", fmt.Errorf("dex index %d conflicted but no record was found", record.DexIndex))
				}
				out = alreadyDiscovered(winner)
				return nil
			case errors.Is(err, creature.ErrIDConflict):
				return fmt.Errorf("%w: %s", ErrIdentifierTaken, record.ID)
			default:
				return transient("insert_creature", err)
			}
		}

		// 从这里开始生物记录已经提交，后续失败只影响积分
		out = Outcome{
			Kind:         NewDiscovery,
			Creature:     record,
			DiscoveredBy: record.TrainerName,
			Player:       p,
			Points:       points,
		}
		if points <= 0 {
			return nil
		}

		updated, err := ledger.AddPoints(ctx, record.TrainerName, points, record.ID)
		if err != nil {
			fmt.Printf("警告: 生物 %s 已登记，但为 %s 发放 %d 积分失败: %v\n", record.ID, record.TrainerName, points, err)
			out.RewardErr = &RewardError{CreatureID: record.ID, Player: record.TrainerName, Points: points, Err: err}
			return nil
		}
		out.Player = updated
		out.RewardApplied = true
		return nil
	})
	if err != nil {
		return Outcome{}, classify("acquire_session", err)
	}
	return out, nil
}

// RetryReward 为已登记但积分未发放的生物补发积分。
// 已发放过时返回 player.ErrAlreadyGranted，生物不存在时返回 creature.ErrNotFound。
func (r *Reconciler) RetryReward(ctx context.Context, creatureID string) (*player.Player, error) {
	var result *player.Player
	err := r.backend.WithSession(ctx, func(s Session) error {
		c, err := s.Records().FindByID(ctx, creatureID)
		if err != nil {
			if errors.Is(err, creature.ErrNotFound) {
				return err
			}
			return transient("find_by_id", err)
		}

		ledger := s.Ledger()
		p, err := ledger.GetOrCreate(ctx, c.TrainerName)
		if err != nil {
			return transient("get_or_create_player", err)
		}
		points := r.policy.PointsFor(c.Rarity)
		if points <= 0 {
			result = p
			return nil
		}

		updated, err := ledger.AddPoints(ctx, c.TrainerName, points, c.ID)
		if err != nil {
			if errors.Is(err, player.ErrAlreadyGranted) {
				return err
			}
			return transient("add_points", err)
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, classify("acquire_session", err)
	}
	return result, nil
}

// Release 放生一只生物：删除记录和它的积分发放记录，已发放的积分不会扣回。
func (r *Reconciler) Release(ctx context.Context, creatureID string) (*creature.Creature, error) {
	var released *creature.Creature
	err := r.backend.WithTx(ctx, func(s Session) error {
		c, err := s.Records().Delete(ctx, creatureID)
		if err != nil {
			return err
		}
		if err := s.Ledger().ForgetGrant(ctx, creatureID); err != nil {
			return err
		}
		released = c
		return nil
	})
	if err != nil {
		return nil, classify("release", err)
	}
	return released, nil
}

// classify 保留已经分类的错误，其余一律视为暂时性故障
func classify(op string, err error) error {
	var te *TransientError
	switch {
	case errors.As(err, &te),
		errors.Is(err, ErrIdentifierTaken),
		errors.Is(err, creature.ErrNotFound),
		errors.Is(err, player.ErrAlreadyGranted):
		return err
	}
	return transient(op, err)
}
