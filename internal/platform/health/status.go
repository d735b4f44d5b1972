package health

import (
	"fmt"
	"sync"
)

// State 定义了缓存层健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// Tracker 根据每次检查到的连接状态和run_id推进状态机
type Tracker struct {
	mu             sync.RWMutex
	currentState   State
	lastKnownRunID string
}

func NewTracker(initialRunID string) *Tracker {
	return &Tracker{currentState: StateHealthy, lastKnownRunID: initialRunID}
}

// State 返回当前状态
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentState
}

// LastKnownRunID 返回最近一次看到的run_id
func (t *Tracker) LastKnownRunID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastKnownRunID
}

// Assess 记录一次检查结果，返回是否需要重建缓存
func (t *Tracker) Assess(connected bool, runID string) (needsRebuild bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	restarted := connected && t.lastKnownRunID != "" && t.lastKnownRunID != runID

	switch t.currentState {
	case StateHealthy:
		if !connected {
			t.currentState = StateDegraded
			fmt.Println("健康检查: Redis连接丢失，系统状态 -> [降级]")
		} else if restarted {
			t.currentState = StateRebuilding
			needsRebuild = true
			fmt.Printf("健康检查: 检测到Redis重启 (run_id: %s -> %s)，系统状态 -> [重建中]\n", t.lastKnownRunID, runID)
		}
	case StateDegraded:
		if connected {
			if restarted {
				t.currentState = StateRebuilding
				needsRebuild = true
				fmt.Printf("健康检查: Redis已恢复但检测到重启 (run_id: %s -> %s)，系统状态 -> [重建中]\n", t.lastKnownRunID, runID)
			} else {
				t.currentState = StateHealthy
				fmt.Println("健康检查: Redis连接已恢复，系统状态 -> [健康]")
			}
		}
	case StateRebuilding:
		if !connected {
			t.currentState = StateDegraded
			fmt.Println("健康检查: 在缓存重建期间Redis连接再次丢失，系统状态 -> [降级]")
		} else {
			// 仍在重建中说明上次重建失败
			needsRebuild = true
		}
	}

	if connected {
		t.lastKnownRunID = runID
	}
	return needsRebuild
}

// MarkRebuildComplete 在一次重建结束后调用。
// 重建期间run_id又变了，说明Redis再次重启，重建作废。
func (t *Tracker) MarkRebuildComplete(success bool, runIDAfterRebuild string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.currentState != StateRebuilding {
		return
	}
	if success && t.lastKnownRunID != runIDAfterRebuild {
		fmt.Printf("健康检查错误: 缓存重建期间检测到Redis再次重启 (run_id: %s -> %s)。重建无效，保持[重建中]状态。\n", t.lastKnownRunID, runIDAfterRebuild)
		t.lastKnownRunID = runIDAfterRebuild
		return
	}
	if success {
		t.currentState = StateHealthy
		fmt.Println("健康检查: 缓存重建成功，系统状态 -> [健康]")
	} else {
		fmt.Println("健康检查错误: 缓存重建失败，系统状态保持 [重建中] 以待重试")
	}
}
