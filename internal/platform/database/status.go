package database

import (
	"fmt"
	"sync/atomic"
)

// redisDegraded 为true表示健康检查认为Redis不可用。零值即"可用"。
var redisDegraded atomic.Bool

// IsRedisHealthy 返回当前Redis是否可用。未启用Redis时始终为false。
func IsRedisHealthy() bool {
	return RDB != nil && !redisDegraded.Load()
}

// SetRedisHealthy 由健康检查器每轮调用，状态翻转时打印日志
func SetRedisHealthy(healthy bool) {
	if redisDegraded.Swap(!healthy) != healthy {
		return
	}
	if healthy {
		fmt.Println("健康检查: Redis服务状态已更新为 [可用]")
	} else {
		fmt.Println("健康检查警告: Redis服务状态已更新为 [不可用]")
	}
}
