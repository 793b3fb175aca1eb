// Package queue implements an unbounded multi-producer queue with explicit
// producer and consumer tokens.
//
// Each Producer owns a private FIFO segment, so producers never contend with each other
// and only briefly with the consumer. The consumer rotates across segments. Values from one
// producer come out in the order they went in; there is no ordering across producers.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is safe for concurrent use by any number of producers and consumers. A Producer
// or Consumer token must not be shared between goroutines.
type Queue[T any] struct {
	mu        sync.Mutex
	producers atomic.Pointer[[]*Producer[T]]
	implicit  *Producer[T]
	size      atomic.Int64
	notify    chan struct{}
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{notify: make(chan struct{}, 1)}
	empty := []*Producer[T]{}
	q.producers.Store(&empty)
	q.implicit = q.NewProducer()
	return q
}

// Producer is a producer token. Create one per producing goroutine or device callback and
// reuse it for every enqueue.
type Producer[T any] struct {
	q      *Queue[T]
	mu     sync.Mutex
	items  []T
	head   int
	closed atomic.Bool
}

// NewProducer registers a new producer token.
func (q *Queue[T]) NewProducer() *Producer[T] {
	p := &Producer[T]{q: q}
	q.mu.Lock()
	defer q.mu.Unlock()
	cur := *q.producers.Load()
	next := make([]*Producer[T], len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, p)
	q.producers.Store(&next)
	return p
}

// Enqueue appends v to the producer's segment. It never blocks on other producers.
// After Close, values are routed through the queue's shared token instead.
func (p *Producer[T]) Enqueue(v T) {
	if p.closed.Load() && p != p.q.implicit {
		p.q.Enqueue(v)
		return
	}
	p.mu.Lock()
	p.items = append(p.items, v)
	p.mu.Unlock()
	p.q.size.Add(1)
	p.q.wake()
}

// Close retires the token. Values it already enqueued stay dequeuable; the segment is
// dropped once it is empty. Close must not race with Enqueue on the same token.
func (p *Producer[T]) Close() {
	p.closed.Store(true)
	if p.empty() {
		p.q.prune()
	}
}

func (p *Producer[T]) pop() (T, bool) {
	var zero T
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.head == len(p.items) {
		return zero, false
	}
	v := p.items[p.head]
	p.items[p.head] = zero
	p.head++
	if p.head == len(p.items) {
		// reuse the backing array
		p.items = p.items[:0]
		p.head = 0
	} else if p.head > 64 && p.head*2 >= len(p.items) {
		n := copy(p.items, p.items[p.head:])
		clear(p.items[n:])
		p.items = p.items[:n]
		p.head = 0
	}
	return v, true
}

func (p *Producer[T]) empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.head == len(p.items)
}

// Enqueue appends v through the queue's shared producer token.
func (q *Queue[T]) Enqueue(v T) {
	q.implicit.Enqueue(v)
}

// SizeApprox returns the number of queued values. It may be stale by the time it returns.
func (q *Queue[T]) SizeApprox() int {
	return int(q.size.Load())
}

func (q *Queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) prune() {
	q.mu.Lock()
	defer q.mu.Unlock()
	cur := *q.producers.Load()
	next := make([]*Producer[T], 0, len(cur))
	for _, p := range cur {
		if p.closed.Load() && p.empty() {
			continue
		}
		next = append(next, p)
	}
	if len(next) != len(cur) {
		q.producers.Store(&next)
	}
}

// Consumer is a consumer token.
type Consumer[T any] struct {
	q    *Queue[T]
	next int
}

// NewConsumer returns a consumer token.
func (q *Queue[T]) NewConsumer() *Consumer[T] {
	return &Consumer[T]{q: q}
}

// TryDequeue returns the next value without blocking.
func (c *Consumer[T]) TryDequeue() (T, bool) {
	var zero T
	if c.q.size.Load() == 0 {
		return zero, false
	}
	producers := *c.q.producers.Load()
	for i := 0; i < len(producers); i++ {
		idx := (c.next + i) % len(producers)
		p := producers[idx]
		if v, ok := p.pop(); ok {
			c.q.size.Add(-1)
			c.next = (idx + 1) % len(producers)
			if p.closed.Load() && p.empty() {
				c.q.prune()
			}
			return v, true
		}
	}
	return zero, false
}

// WaitDequeue blocks until a value is available.
func (c *Consumer[T]) WaitDequeue() T {
	v, _ := c.WaitDequeueContext(context.Background())
	return v
}

// WaitDequeueContext blocks until a value is available or ctx is done.
func (c *Consumer[T]) WaitDequeueContext(ctx context.Context) (T, error) {
	for {
		if v, ok := c.TryDequeue(); ok {
			return v, nil
		}
		select {
		case <-c.q.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Drain discards every queued value and returns how many were dropped.
func (c *Consumer[T]) Drain() int {
	n := 0
	for {
		if _, ok := c.TryDequeue(); !ok {
			return n
		}
		n++
	}
}
