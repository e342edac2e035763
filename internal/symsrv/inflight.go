package symsrv

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flightGroup 基于 singleflight 合并同一进程内对同一文件的并发获取。
// 共享调用运行在独立的 ctx 上，只有全部等待方都放弃后才会被取消；mu 不跨越任何 I/O。
type flightGroup struct {
	mu      sync.Mutex
	group   singleflight.Group
	flights map[string]*flight
}

// flight 是一次共享调用及其当前等待方。
type flight struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	waiters map[*waiter]struct{}
}

type waiter struct {
	ctx  context.Context
	stop func() bool
}

// flightFunc 在共享 ctx 上执行获取；check 在每次尝试前同步判断是否已被全部等待方放弃。
type flightFunc func(ctx context.Context, check func() error) (*Result, error)

// join 把 ctx 登记为 key 的等待方，返回结果通道与离开函数。
// 没有进行中的调用时才会执行 fn；调用方必须在返回前执行 leave。
func (g *flightGroup) join(ctx context.Context, key string, fn flightFunc) (<-chan singleflight.Result, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.flights == nil {
		g.flights = make(map[string]*flight)
	}
	f, ok := g.flights[key]
	if !ok {
		shared, cancel := context.WithCancelCause(context.Background())
		f = &flight{ctx: shared, cancel: cancel, waiters: make(map[*waiter]struct{})}
		g.flights[key] = f
	}

	w := &waiter{ctx: ctx}
	f.waiters[w] = struct{}{}
	w.stop = context.AfterFunc(ctx, func() {
		g.mu.Lock()
		g.abandonLocked(key, f)
		g.mu.Unlock()
	})

	check := func() error {
		g.mu.Lock()
		g.abandonLocked(key, f)
		g.mu.Unlock()
		return context.Cause(f.ctx)
	}
	ch := g.group.DoChan(key, func() (any, error) {
		defer g.finish(key, f)
		return fn(f.ctx, check)
	})
	return ch, func() { g.leave(key, f, w) }
}

func (g *flightGroup) leave(key string, f *flight, w *waiter) {
	w.stop()
	g.mu.Lock()
	delete(f.waiters, w)
	g.abandonLocked(key, f)
	g.mu.Unlock()
}

func (g *flightGroup) finish(key string, f *flight) {
	g.mu.Lock()
	if g.flights[key] == f {
		delete(g.flights, key)
	}
	g.mu.Unlock()
	f.cancel(nil)
}

// abandonLocked 在没有存活等待方时取消共享 ctx，并让后续请求发起新的调用。
func (g *flightGroup) abandonLocked(key string, f *flight) {
	if f.ctx.Err() != nil {
		return
	}
	cause := error(context.Canceled)
	for w := range f.waiters {
		err := w.ctx.Err()
		if err == nil {
			return
		}
		cause = err
	}
	f.cancel(cause)
	if g.flights[key] == f {
		delete(g.flights, key)
		g.group.Forget(key)
	}
}
