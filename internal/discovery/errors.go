package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIdentifierTaken 表示候选记录的ID已被另一个图鉴编号的生物使用
var ErrIdentifierTaken = errors.New("creature identifier already taken")

// ValidationError 表示请求缺少必填字段或字段值非法，此时没有访问任何存储。
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// TransientError 表示存储暂时不可用，调用方可以重试。出现该错误时不会有任何积分被写入。
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("discovery %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RewardError 表示生物已经写入，但积分没有发放成功。
// 可以通过 Reconciler.RetryReward 单独重试。
type RewardError struct {
	CreatureID string
	Player     string
	Points     int
	Err        error
}

func (e *RewardError) Error() string {
	return fmt.Sprintf("reward of %d points for %s to %s not applied: %v", e.Points, e.CreatureID, e.Player, e.Err)
}

func (e *RewardError) Unwrap() error { return e.Err }

func transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}
