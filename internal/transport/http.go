package transport

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/any-hub/symhub/internal/symsrv"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

func init() {
	MustRegister(Metadata{
		Key:         "http",
		Description: "net/http client with pooled keep-alive connections; streams bodies straight to the cache",
		Factory: func(opts Options) (symsrv.Transport, error) {
			return NewHTTP(NewHTTPClient(opts.Timeout), opts.UserAgent), nil
		},
	})
}

// NewHTTPClient 返回共享调优 Transport 的 http.Client。timeout 只约束等待响应头的时间，
// 大文件正文的传输时长交由 ctx（AttemptTimeout）控制。
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := defaultTransport.Clone()
	if timeout > 0 {
		tr.ResponseHeaderTimeout = timeout
	}
	return &http.Client{Transport: tr}
}

// HTTP 是基于 net/http 的 symsrv.Transport，正文以流的形式交给缓存写入。
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP 使用给定 client 构造实现；client 为 nil 时使用 NewHTTPClient(0)。
func NewHTTP(client *http.Client, userAgent string) *HTTP {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTP{client: client, userAgent: userAgent}
}

// Fetch 发起 GET 并分类结果：200 返回正文，404 返回 symsrv.ErrFileNotFound，其余为 *symsrv.TransportError。
func (h *HTTP) Fetch(ctx context.Context, url string) (*symsrv.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &symsrv.TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &symsrv.TransportError{URL: url, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &symsrv.Payload{
			Body:    resp.Body,
			Size:    resp.ContentLength,
			ModTime: lastModified(resp.Header.Get("Last-Modified")),
		}, nil
	case http.StatusNotFound:
		drain(resp.Body)
		return nil, symsrv.ErrFileNotFound
	default:
		drain(resp.Body)
		return nil, &symsrv.TransportError{URL: url, StatusCode: resp.StatusCode}
	}
}

// drain 读掉少量剩余正文以便连接复用。
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	body.Close()
}

func lastModified(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if parsed, err := http.ParseTime(raw); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}
