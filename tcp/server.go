package tcp

import (
	"context"
	"gowheel/interface/tcp"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

type Config struct {
	Address string
	MaxConn uint32 // 最大连接数 0表示不限制
}

// ListenAndServe 启动tcp服务器 handler是tcp连接建立后需要做的事
// 收到 SIGHUP, SIGQUIT, SIGTERM, SIGINT 后优雅关闭
func ListenAndServe(cfg *Config, handler tcp.Handler) error {
	// tcp服务器关闭channel
	closeChan := make(chan struct{})
	// 中断信号监听
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		// 阻塞等待中断信号
		sig := <-signalChan
		switch sig {
		case syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT:
			closeChan <- struct{}{}
		}
	}()
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	zap.L().Info("start listening", zap.String("address", cfg.Address))
	listenAndServeInternal(listener, handler, cfg.MaxConn, closeChan)
	return nil
}

// listenAndServeInternal 具有优雅关闭的tcp连接处理
func listenAndServeInternal(listener net.Listener, handler tcp.Handler, maxConn uint32, closeChan <-chan struct{}) {
	// 等待close信号 一旦接收到信号 则开始优雅退出
	go func() {
		<-closeChan
		zap.L().Info("shutting down...")
		// 停止监听客户端的连接请求 已经建立的连接由handler关闭
		_ = listener.Close()
		_ = handler.Close()
	}()

	// panic时关闭资源 作为一个兜底
	defer func() {
		_ = listener.Close()
		_ = handler.Close()
	}()

	ctx := context.Background()

	// wg用来等待所有连接处理完毕
	var (
		wg     sync.WaitGroup
		active uint32
	)
	for {
		conn, err := listener.Accept()
		if err != nil {
			break
		}
		if maxConn > 0 && atomic.LoadUint32(&active) >= maxConn {
			zap.L().Warn("too many connections, rejected", zap.String("remote", conn.RemoteAddr().String()))
			_ = conn.Close()
			continue
		}
		zap.L().Debug("accept connection", zap.String("remote", conn.RemoteAddr().String()))
		atomic.AddUint32(&active, 1)
		wg.Add(1)
		go func() {
			defer func() {
				atomic.AddUint32(&active, ^uint32(0))
				wg.Done()
			}()
			handler.Handle(ctx, conn)
		}()
	}
	// 阻塞在这 除非所有连接都处理完了才会返回
	wg.Wait()
}
