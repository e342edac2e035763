package symsrv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/symhub/internal/cache"
	"github.com/any-hub/symhub/internal/logging"
)

// Status 表示一次成功获取的来源。
type Status int

const (
	// AlreadyExists 表示文件已存在于某个服务器的本地缓存中，没有发起网络请求。
	AlreadyExists Status = iota + 1
	// DownloadedOK 表示文件从远端下载并已写入缓存。
	DownloadedOK
)

func (s Status) String() string {
	switch s {
	case AlreadyExists:
		return "already_exists"
	case DownloadedOK:
		return "downloaded_ok"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Request 描述一次符号文件获取。
type Request struct {
	Info    FileInfo
	Name    string
	Servers ServerList
}

// Result 描述成功获取后的缓存位置。
type Result struct {
	Status Status
	// Server 是命中缓存或完成下载的服务器。
	Server ServerSpec
	Entry  cache.Entry
	// Shared 表示同一次获取的结果被同进程内多个并发请求共享。
	Shared bool
}

// Options 汇总 Retriever 的依赖。
type Options struct {
	Transport Transport
	Store     cache.Store
	Logger    *logrus.Logger
	// AttemptTimeout 限制单个服务器的一次尝试，超时按传输失败处理并回退到下一个服务器。
	AttemptTimeout time.Duration
}

// Retriever 实现“本地缓存优先 → 按优先级回源 → 原子写缓存”的获取流程。
// 服务器列表与缓存根目录随每次请求传入，Retriever 自身不持有请求相关状态。
type Retriever struct {
	transport      Transport
	store          cache.Store
	logger         *logrus.Logger
	attemptTimeout time.Duration
	flights        flightGroup
}

// NewRetriever 校验依赖并构造 Retriever。
func NewRetriever(opts Options) (*Retriever, error) {
	if opts.Transport == nil {
		return nil, errors.New("transport is required")
	}
	if opts.Store == nil {
		return nil, errors.New("cache store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Retriever{
		transport:      opts.Transport,
		store:          opts.Store,
		logger:         logger,
		attemptTimeout: opts.AttemptTimeout,
	}, nil
}

// Download 是阻塞式入口，仅返回状态。
func (r *Retriever) Download(ctx context.Context, info FileInfo, name string, servers ServerList) (Status, error) {
	result, err := r.Retrieve(ctx, Request{Info: info, Name: name, Servers: servers})
	if err != nil {
		return 0, err
	}
	return result.Status, nil
}

// Retrieve 阻塞直到获取成功、所有服务器失败或 ctx 被取消。
// 相同文件与服务器列表的并发请求共享一次获取；某个请求被取消只会让它自己返回，
// 只有全部请求都放弃后共享获取才会在下一个服务器尝试之前停止。
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	hash := req.Info.Hash()
	key := req.Name + "/" + hash + "|" + req.Servers.String()

	ch, leave := r.flights.join(ctx, key, func(shared context.Context, check func() error) (*Result, error) {
		return r.retrieve(shared, check, req, hash)
	})
	defer leave()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*Result)
		result.Shared = res.Shared
		return &result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// attempt 是对单个服务器的一次尝试结果。fatal 为 true 时终止整个请求，不再回退。
type attempt struct {
	server ServerSpec
	result *Result
	err    error
	fatal  bool
}

// attempts 按优先级依次产出每个服务器的尝试结果；check 报错后不再开始新的尝试。
func (r *Retriever) attempts(ctx context.Context, check func() error, req Request, hash string) iter.Seq[attempt] {
	return func(yield func(attempt) bool) {
		for _, server := range req.Servers {
			if err := check(); err != nil {
				yield(attempt{server: server, err: err, fatal: true})
				return
			}
			if !yield(r.try(ctx, server, req.Name, hash, req.Info.Kind())) {
				return
			}
		}
	}
}

// retrieve 折叠 attempts：第一个成功即返回，致命错误立即返回，其余失败累积到耗尽为止。
func (r *Retriever) retrieve(ctx context.Context, check func() error, req Request, hash string) (*Result, error) {
	var failures []AttemptError
	for a := range r.attempts(ctx, check, req, hash) {
		switch {
		case a.err == nil:
			return a.result, nil
		case a.fatal:
			return nil, a.err
		}
		failures = append(failures, AttemptError{Server: a.server, Err: a.err})
	}

	err := newRetrieveError(req.Name, hash, failures)
	fields := logging.RetrievalFields(req.Name, hash, req.Info.Kind())
	fields["action"] = "retrieve"
	fields["attempts"] = len(failures)
	if err.NotFound() {
		r.logger.WithFields(fields).Info("symbol_not_found")
	} else {
		r.logger.WithFields(fields).WithError(err.Unwrap()).Warn("symbol_retrieve_failed")
	}
	return nil, err
}

func (r *Retriever) try(ctx context.Context, server ServerSpec, name, hash, kind string) attempt {
	locator := cache.Locator{
		Root: server.CachePath,
		Path: RelativePath(server.CachePath, name, hash),
	}
	fields := logging.Merge(logging.RetrievalFields(name, hash, kind), logrus.Fields{
		"server":     server.ServerURL,
		"cache_root": server.CachePath,
	})

	entry, err := r.store.Stat(ctx, locator)
	switch {
	case err == nil:
		fields["action"] = "cache_lookup"
		fields["cache_hit"] = true
		r.logger.WithFields(fields).Debug("symbol_cache_hit")
		return attempt{server: server, result: &Result{Status: AlreadyExists, Server: server, Entry: *entry}}
	case errors.Is(err, cache.ErrNotFound):
	case ctx.Err() != nil:
		return attempt{server: server, err: context.Cause(ctx), fatal: true}
	default:
		storageErr := &StorageError{Op: "stat", Path: locator.Path, Err: err}
		r.logger.WithFields(fields).WithError(err).Warn("cache_stat_failed")
		return attempt{server: server, err: storageErr}
	}

	attemptCtx := ctx
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	url := RemoteURL(server.ServerURL, name, hash)
	fields["upstream"] = url
	started := time.Now()

	payload, err := r.transport.Fetch(attemptCtx, url)
	if err != nil {
		if ctx.Err() != nil {
			return attempt{server: server, err: context.Cause(ctx), fatal: true}
		}
		if errors.Is(err, ErrFileNotFound) {
			fields["action"] = "fetch"
			r.logger.WithFields(fields).Debug("symbol_fetch_not_found")
			return attempt{server: server, err: ErrFileNotFound}
		}
		transportErr := asTransportError(server, url, err)
		r.logger.WithFields(fields).WithError(err).Warn("symbol_fetch_failed")
		return attempt{server: server, err: transportErr}
	}
	defer payload.Body.Close()

	body := &trackingReader{r: payload.Body}
	written, err := r.store.Put(attemptCtx, locator, body, cache.PutOptions{ModTime: payload.ModTime})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return attempt{server: server, err: context.Cause(ctx), fatal: true}
		case body.err != nil || attemptCtx.Err() != nil:
			readErr := body.err
			if readErr == nil {
				readErr = attemptCtx.Err()
			}
			r.logger.WithFields(fields).WithError(readErr).Warn("symbol_fetch_failed")
			return attempt{server: server, err: asTransportError(server, url, readErr)}
		default:
			r.logger.WithFields(fields).WithError(err).Error("cache_write_failed")
			return attempt{server: server, err: &StorageError{Op: "write", Path: locator.Path, Err: err}, fatal: true}
		}
	}

	fields["action"] = "fetch"
	fields["size_bytes"] = written.SizeBytes
	fields["digest"] = written.Digest
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	r.logger.WithFields(fields).Info("symbol_downloaded")
	return attempt{server: server, result: &Result{Status: DownloadedOK, Server: server, Entry: *written}}
}

func asTransportError(server ServerSpec, url string, err error) error {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Server == "" {
			copied := *transportErr
			copied.Server = server.ServerURL
			return &copied
		}
		return transportErr
	}
	return &TransportError{Server: server.ServerURL, URL: url, Err: err}
}

// trackingReader 记录读取上游正文时的错误，用于区分传输失败与磁盘写入失败。
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}

func validateRequest(req Request) error {
	if req.Info == nil {
		return fmt.Errorf("%w: missing file info", ErrInvalidName)
	}
	if !validSegment(req.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, req.Name)
	}
	if hash := req.Info.Hash(); !validSegment(hash) {
		return fmt.Errorf("%w: hash %q", ErrInvalidName, hash)
	}
	if len(req.Servers) == 0 {
		return ErrNoServers
	}
	return nil
}

// validSegment 判断字符串能否作为单个路径段。
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
