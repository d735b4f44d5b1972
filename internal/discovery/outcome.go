package discovery

import (
	"github.com/SlpAus/creature-dex-backend/internal/creature"
	"github.com/SlpAus/creature-dex-backend/internal/player"
)

// Kind 区分一次发现请求的两种正常结果
type Kind int

const (
	NewDiscovery Kind = iota + 1
	AlreadyDiscovered
)

func (k Kind) String() string {
	switch k {
	case NewDiscovery:
		return "new_discovery"
	case AlreadyDiscovered:
		return "already_discovered"
	default:
		return "unknown"
	}
}

// Outcome 是 Reconcile 的结果。
//
// AlreadyDiscovered 时只有 Creature 和 DiscoveredBy 有意义。
// NewDiscovery 时 Player 是加分后的玩家；积分为0或加分失败时是加分前的玩家，
// 加分失败的原因记录在 RewardErr 中。
type Outcome struct {
	Kind         Kind
	Creature     *creature.Creature
	DiscoveredBy string

	Player        *player.Player
	Points        int
	RewardApplied bool
	RewardErr     error
}

func alreadyDiscovered(c *creature.Creature) Outcome {
	return Outcome{Kind: AlreadyDiscovered, Creature: c, DiscoveredBy: c.TrainerName}
}
