package symsrv

import "context"

// Pending 是非阻塞获取的句柄，由 Retriever.Go 返回。
type Pending struct {
	done   chan struct{}
	result *Result
	err    error
}

// Go 在后台 goroutine 中执行与 Retrieve 完全相同的流程并立即返回。
// 取消 ctx 会在下一个服务器尝试之前停止，且不会留下写了一半的缓存文件。
func (r *Retriever) Go(ctx context.Context, req Request) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.result, p.err = r.Retrieve(ctx, req)
	}()
	return p
}

// Done 在获取结束后关闭，可用于 select。
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait 等待获取结束或 ctx 取消。ctx 取消只放弃等待，不影响后台获取。
func (p *Pending) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status 等待结束并只返回状态，与 Download 的返回值一致。
func (p *Pending) Status() (Status, error) {
	<-p.done
	if p.err != nil {
		return 0, p.err
	}
	return p.result.Status, nil
}
