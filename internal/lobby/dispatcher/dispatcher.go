// Package dispatcher 把后台 goroutine 的结果安全地交回单线程消费循环
//
// 广播器和扫描器在各自的 goroutine 中做阻塞 I/O，它们从不直接修改消费者
// 状态，而是把回调放入 Dispatcher。消费循环每个 tick 调用一次 DrainAndRun，
// 在自己的 goroutine 上按入队顺序执行这些回调。
//
// 每个进程只应有一个 Dispatcher，由组合根（fx）创建并注入，见 Module。
package dispatcher

import (
	"sync"

	"github.com/dep2p/go-lobby/pkg/lib/log"
)

var logger = log.Logger("lobby/dispatcher")

// Action 待执行的回调，不能阻塞
type Action func()

// Dispatcher 线程安全的回调队列
type Dispatcher struct {
	mu    sync.Mutex
	queue []Action

	// spare 上次排空后的底层数组，交替复用以减少分配
	spare []Action
}

// New 创建 Dispatcher
func New() *Dispatcher {
	return &Dispatcher{}
}

// Enqueue 追加一个回调，可从任意 goroutine 并发调用
//
// nil 回调会被记录并丢弃。
func (d *Dispatcher) Enqueue(action Action) {
	if action == nil {
		logger.Warn("忽略 nil 回调")
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, action)
	d.mu.Unlock()
}

// DrainAndRun 取出当前队列并按入队顺序执行，返回执行的回调数
//
// 只能在消费者 goroutine 上调用。回调在锁外执行，回调中再次 Enqueue
// 的动作会留到下一次 DrainAndRun。
func (d *Dispatcher) DrainAndRun() int {
	d.mu.Lock()
	pending := d.queue
	d.queue = d.spare[:0]
	d.spare = nil
	d.mu.Unlock()

	for i, action := range pending {
		action()
		pending[i] = nil
	}

	d.mu.Lock()
	if d.spare == nil {
		d.spare = pending[:0]
	}
	d.mu.Unlock()

	return len(pending)
}

// Len 返回待执行的回调数
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
