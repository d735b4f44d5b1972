package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Manager 负责向各个后台服务分发句柄(Handle)，并在停机时等待它们退出。
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建一个新的生命周期管理器。
func NewManager() *Manager {
	m := &Manager{
		services: make(map[string]bool),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle 为一个服务创建一个新的生命周期句柄(Handle)。
// 管理器会自动为这个服务注册并增加WaitGroup计数。
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.services[name] {
		return nil, fmt.Errorf("生命周期管理器: 服务 '%s' 已被注册", name)
	}
	m.services[name] = true
	m.wg.Add(1)
	fmt.Printf("生命周期管理器: 服务 [%s] 已注册。\n", name)

	return &Handle{
		name: name,
		ctx:  m.ctx,
		close: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if !m.services[name] {
				return
			}
			delete(m.services, name)
			m.wg.Done()
		},
	}, nil
}

// Go 注册一个服务并在新的Goroutine中运行它，run返回时自动Close。
func (m *Manager) Go(name string, run func(h *Handle)) error {
	h, err := m.NewServiceHandle(name)
	if err != nil {
		return err
	}
	go func() {
		defer h.Close()
		run(h)
	}()
	return nil
}

// Shutdown 广播停机信号
func (m *Manager) Shutdown() {
	fmt.Println("生命周期管理器: 广播停机信号...")
	m.cancel()
}

// WaitWithTimeout 等待所有已注册的服务完成，直到指定的超时。
// 返回超时时仍未退出的服务名称。
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	doneChan := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneChan)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doneChan:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.remainingServices()
	}
}

func (m *Manager) remainingServices() []string {
	remaining := make([]string, 0, len(m.services))
	for name := range m.services {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)
	return remaining
}
