package symsrv

import (
	"context"
	"io"
	"time"
)

// Transport 执行一次 GET 并完成结果分类：404 必须返回包裹 ErrFileNotFound 的错误，
// 其余失败返回 *TransportError（或任意 error，调用方会按传输失败处理）。
type Transport interface {
	Fetch(ctx context.Context, url string) (*Payload, error)
}

// Payload 是一次成功获取的响应正文。调用方负责关闭 Body。
type Payload struct {
	Body io.ReadCloser
	// Size 为 -1 表示未知长度。
	Size    int64
	ModTime time.Time
}

// TransportFunc 将普通函数适配为 Transport，便于测试注入。
type TransportFunc func(ctx context.Context, url string) (*Payload, error)

// Fetch makes TransportFunc satisfy Transport.
func (f TransportFunc) Fetch(ctx context.Context, url string) (*Payload, error) {
	return f(ctx, url)
}
