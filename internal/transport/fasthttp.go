package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v3/client"

	"github.com/any-hub/symhub/internal/symsrv"
)

// maxRedirects 覆盖 msdl 这类 302 到 CDN 的符号服务器。
const maxRedirects = 10

func init() {
	MustRegister(Metadata{
		Key:         "fasthttp",
		Description: "Fiber client (fasthttp); buffers each artifact in memory before publishing",
		Factory: func(opts Options) (symsrv.Transport, error) {
			return NewFast(opts), nil
		},
	})
}

// Fast 是基于 Fiber client 的 symsrv.Transport。fasthttp 不支持流式读取正文，
// 因此整个文件先读入内存，再交给缓存写入。
type Fast struct {
	client *client.Client
}

// NewFast 按 Options 构造 Fiber client。
func NewFast(opts Options) *Fast {
	cc := client.New()
	if opts.Timeout > 0 {
		cc.SetTimeout(opts.Timeout)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	cc.SetUserAgent(ua)
	return &Fast{client: cc}
}

// Fetch 与 HTTP.Fetch 的分类规则一致。
func (f *Fast) Fetch(ctx context.Context, url string) (*symsrv.Payload, error) {
	resp, err := f.client.Get(url, client.Config{Ctx: ctx, MaxRedirects: maxRedirects})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &symsrv.TransportError{URL: url, Err: err}
	}
	defer resp.Close()

	switch status := resp.StatusCode(); status {
	case http.StatusOK:
		data := bytes.Clone(resp.Body())
		return &symsrv.Payload{
			Body:    io.NopCloser(bytes.NewReader(data)),
			Size:    int64(len(data)),
			ModTime: lastModified(resp.Header("Last-Modified")),
		}, nil
	case http.StatusNotFound:
		return nil, symsrv.ErrFileNotFound
	default:
		return nil, &symsrv.TransportError{URL: url, StatusCode: status}
	}
}
