package wait

import (
	"sync"
	"time"
)

// Wait 封装了WaitGroup 拓展了超时等待功能
type Wait struct {
	wg sync.WaitGroup
}

func (w *Wait) Add(delta int) {
	w.wg.Add(delta)
}

func (w *Wait) Done() {
	w.wg.Done()
}

func (w *Wait) Wait() {
	w.wg.Wait()
}

// WaitWithTimeout 阻塞直到计数器为0或者超时 超时返回true
func (w *Wait) WaitWithTimeout(timeout time.Duration) bool {
	// 这里必须使用带缓冲区的chan 超时返回后等待的go routine仍然可以写入并退出 不会泄漏
	c := make(chan struct{}, 1)
	go func() {
		w.Wait()
		c <- struct{}{}
	}()
	select {
	case <-c:
		return false // 正常完成
	case <-time.After(timeout):
		return true // 超时
	}
}
