package xlog

import "sync"

// queueInitialCapacity 待写队列的初始容量
const queueInitialCapacity = 4096

// record 一条待写入文件的日志
type record struct {
	level Level
	text  string
}

// pendingQueue 无界 FIFO 队列
//
// 任意 goroutine 可以 push；只有 Writer 的 worker 会 pop。
type pendingQueue struct {
	mu    sync.Mutex
	items []record
	head  int
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{items: make([]record, 0, queueInitialCapacity)}
}

func (q *pendingQueue) push(r record) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

// pop 取出队首记录，队列为空时返回 false
func (q *pendingQueue) pop() (record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return record{}, false
	}
	r := q.items[q.head]
	q.items[q.head] = record{}
	q.head++

	switch {
	case q.head == len(q.items):
		// 取空后复用底层数组
		q.items = q.items[:0]
		q.head = 0
	case q.head >= queueInitialCapacity && q.head*2 >= len(q.items):
		// 已取出部分过半时压缩，避免长时间不空的队列无限占用头部空间
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return r, true
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
