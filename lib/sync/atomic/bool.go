package atomic

import "sync/atomic"

// Boolean 是一个bool值 其所有的操作是原子性的
type Boolean uint32

// Get 原子读
func (b *Boolean) Get() bool {
	return atomic.LoadUint32((*uint32)(b)) != 0
}

// Set 原子写
func (b *Boolean) Set(v bool) {
	if v {
		atomic.StoreUint32((*uint32)(b), 1)
	} else {
		atomic.StoreUint32((*uint32)(b), 0)
	}
}

// CompareAndSwap 当前值等于old时设置为new 返回是否设置成功
// 用于只允许执行一次的操作 例如关闭连接
func (b *Boolean) CompareAndSwap(old, new bool) bool {
	return atomic.CompareAndSwapUint32((*uint32)(b), boolToUint32(old), boolToUint32(new))
}

func boolToUint32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
