package shutdown

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/creature-dex-backend/pkg/lifecycle"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager

	// Closers 在所有后台服务退出后按顺序执行，用于关闭数据库和Redis连接
	Closers []func() error
}

func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager, closers ...func() error) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
		Closers:         closers,
	}
}

// ListenForSignalsAndShutdown 阻塞直到收到停机信号，然后执行停机流程。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\n收到关闭信号，开始优雅停机...")

	c.Shutdown(server)
}

// Shutdown 关闭HTTP服务器，再分两个阶段停止后台服务，最后释放连接。
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Printf("Gin服务器关闭错误: %v\n", err)
		} else {
			fmt.Println("Gin服务器已关闭。")
		}
	}

	// 阶段一: 等待后台服务完成手头的任务
	fmt.Printf("第一阶段停机：等待最多 %v 以完成任务...\n", gracefulTimeout)
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) == 0 {
		fmt.Println("所有服务已在第一阶段优雅关闭。")
	} else {
		// 阶段二: 中断仍在执行的任务
		fmt.Printf("第一阶段超时 (%v 未退出)。发送第二停机信号...\n", remaining)
		c.ForcefulManager.Shutdown()
		c.ForcefulManager.WaitWithTimeout(forcefulTimeout)
	}
	// 第二阶段的句柄也要释放
	c.ForcefulManager.Shutdown()

	for _, closeFn := range c.Closers {
		if err := closeFn(); err != nil {
			fmt.Printf("关闭资源失败: %v\n", err)
		}
	}
	fmt.Println("优雅停机完成。")
}
