package tcp

import (
	"bufio"
	"context"
	"fmt"
	"gowheel/lib/sync/atomic"
	"gowheel/lib/sync/wait"
	"gowheel/lib/timewheel"
	"io"
	"net"
	"strings"
	"sync"
	syncatomic "sync/atomic"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"
)

// statsCommand 收到这一行时返回时间轮的统计信息(JSON) 而不是回显
const statsCommand = "STATS"

// IdleTimeout 返回当前的空闲超时时间 <= 0 表示不回收空闲连接
// 每次检查都会重新调用 所以配置热更新后立即生效
type IdleTimeout func() time.Duration

// StaticIdleTimeout 固定的空闲超时时间
func StaticIdleTimeout(d time.Duration) IdleTimeout {
	return func() time.Duration { return d }
}

// EchoHandler 输出收到的消息给客户端 空闲超时的连接由时间轮任务关闭
type EchoHandler struct {
	activeConn  sync.Map       // map代替set
	closing     atomic.Boolean // 正在关闭的标识符 为true后拒绝所有新的连接
	timer       *timewheel.Timer
	idleTimeout IdleTimeout
	seq         uint64 // 生成连接在时间轮中的key
}

// NewEchoHandler 创建一个EchoHandler实例
// timer为nil时使用包级别的默认时间轮 idleTimeout为nil时不回收空闲连接
func NewEchoHandler(timer *timewheel.Timer, idleTimeout IdleTimeout) *EchoHandler {
	if timer == nil {
		timer = timewheel.Default()
	}
	if idleTimeout == nil {
		idleTimeout = StaticIdleTimeout(0)
	}
	return &EchoHandler{
		timer:       timer,
		idleTimeout: idleTimeout,
	}
}

// Handle 服务端处理函数
func (h *EchoHandler) Handle(ctx context.Context, conn net.Conn) {
	if h.closing.Get() {
		// handler 正在关闭 拒绝新连接
		_ = conn.Close()
		return
	}
	client := &EchoClient{
		Conn: conn,
		key:  fmt.Sprintf("idle:%d:%s", syncatomic.AddUint64(&h.seq, 1), conn.RemoteAddr()),
	}
	// 保存在map中 用Map来代替Set
	h.activeConn.Store(client, struct{}{})
	h.touch(client)

	reader := bufio.NewReader(conn)
	for {
		// 可能的错误: client EOF, 空闲超时被关闭, server early close
		// 以'\n'为分隔符解决粘包拆包问题
		msg, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				zap.L().Debug("connection close", zap.String("remote", conn.RemoteAddr().String()))
			} else if !client.closed.Get() {
				zap.L().Warn("read failed", zap.Error(err))
			}
			h.closeClient(client)
			return
		}
		h.touch(client)

		// 向客户端发送数据前先设置Waiting状态，防止连接被关闭
		client.Waiting.Add(1)
		if strings.TrimSpace(msg) == statsCommand {
			_, _ = conn.Write(h.stats())
		} else {
			_, _ = conn.Write([]byte(msg))
		}
		client.Waiting.Done()
	}
}

// touch 记录最近一次活跃时间 连接没有空闲任务时才向时间轮添加
// 每个连接在时间轮中最多只有一个任务 消息再多也不会堆积
func (h *EchoHandler) touch(client *EchoClient) {
	syncatomic.StoreInt64(&client.lastActive, time.Now().UnixNano())
	if client.armed.CompareAndSwap(false, true) {
		h.arm(client, h.idleTimeout())
	}
}

func (h *EchoHandler) arm(client *EchoClient, delay time.Duration) {
	if delay <= 0 {
		client.armed.Set(false)
		return
	}
	err := h.timer.AddJob(delay, client.key, func() {
		h.checkIdle(client)
	})
	if err != nil {
		client.armed.Set(false)
		zap.L().Warn("arm idle timer failed", zap.String("key", client.key), zap.Error(err))
	}
}

// checkIdle 时间轮任务: 空闲时间已到则关闭连接 否则按剩余时间重新添加任务
func (h *EchoHandler) checkIdle(client *EchoClient) {
	idle := h.idleTimeout()
	if idle <= 0 {
		client.armed.Set(false)
		return
	}
	elapsed := time.Since(time.Unix(0, syncatomic.LoadInt64(&client.lastActive)))
	if elapsed < idle {
		h.arm(client, idle-elapsed)
		return
	}
	zap.L().Info("close idle connection",
		zap.String("remote", client.Conn.RemoteAddr().String()),
		zap.Duration("idle", elapsed))
	h.closeClient(client)
}

func (h *EchoHandler) stats() []byte {
	b, err := sonnet.Marshal(h.timer.Stats())
	if err != nil {
		zap.L().Error("marshal stats failed", zap.Error(err))
		return []byte("{}\n")
	}
	return append(b, '\n')
}

// closeClient 关闭连接 并取消它的空闲任务
func (h *EchoHandler) closeClient(client *EchoClient) {
	h.activeConn.Delete(client)
	_ = client.Close()
	_ = h.timer.RemoveJob(client.key)
}

// Close 关闭所有连接 只有第一次调用有效
func (h *EchoHandler) Close() error {
	if !h.closing.CompareAndSwap(false, true) {
		return nil
	}
	zap.L().Info("handler shutting down...")
	h.activeConn.Range(func(key, value any) bool {
		client, ok := key.(*EchoClient)
		if ok {
			_ = client.Close()
		}
		h.activeConn.Delete(key)
		return true
	})
	return nil
}

// EchoClient 用于EchoHandler的客户端
type EchoClient struct {
	Conn       net.Conn
	Waiting    wait.Wait
	key        string         // 在时间轮中的key
	closed     atomic.Boolean // 已经关闭
	armed      atomic.Boolean // 时间轮中已有这个连接的空闲任务
	lastActive int64          // 最近一次活跃的时间 UnixNano
}

// Close 等待数据发送完毕(最多10秒)后关闭connection 只有第一次调用有效
func (c *EchoClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.Waiting.WaitWithTimeout(10 * time.Second)
	return c.Conn.Close()
}
