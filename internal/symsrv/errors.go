package symsrv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound 表示某个服务器没有该符号文件（HTTP 404），属于预期结果，会继续尝试下一个服务器。
	ErrFileNotFound = errors.New("server returned 404 not found")

	// ErrMalformedSpec 表示符号服务器字符串不符合 SRV*<CACHE_PATH>*<SYMBOL_SERVER>。
	ErrMalformedSpec = errors.New("unsupported server string form; only 'SRV*<CACHE_PATH>*<SYMBOL_SERVER>' supported")

	// ErrNoServers 表示调用方传入了空的服务器列表。
	ErrNoServers = errors.New("symbol server list is empty")

	// ErrInvalidName 表示文件名或哈希不能安全地作为单个路径段使用。
	ErrInvalidName = errors.New("invalid symbol file name")
)

// SpecError 记录解析失败的原始输入，Unwrap 后为 ErrMalformedSpec。
type SpecError struct {
	Input string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMalformedSpec.Error(), e.Input)
}

func (e *SpecError) Unwrap() error { return ErrMalformedSpec }

// TransportError 表示与某个服务器通信失败（连接、协议、超时或非 200/404 状态码）。
type TransportError struct {
	Server     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("error requesting %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("error requesting %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout 报告失败是否由超时引起，包括单次尝试超时与等待响应头超时。
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	return errors.As(e.Err, &timeout) && timeout.Timeout()
}

// StorageError 表示本地缓存读写失败。
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AttemptError 记录一次针对单个服务器的失败尝试。
type AttemptError struct {
	Server ServerSpec
	Err    error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Server.ServerURL, e.Err)
}

// RetrieveError 是所有服务器都失败后的聚合错误。Unwrap 返回最有信息量的单个错误：
// 全部 404 时为 ErrFileNotFound，否则为最近一次非 404 的失败。
type RetrieveError struct {
	File     string
	Hash     string
	Attempts []AttemptError
	final    error
}

func newRetrieveError(file, hash string, attempts []AttemptError) *RetrieveError {
	var final error = ErrFileNotFound
	for i := len(attempts) - 1; i >= 0; i-- {
		if !errors.Is(attempts[i].Err, ErrFileNotFound) {
			final = attempts[i].Err
			break
		}
	}
	return &RetrieveError{File: file, Hash: hash, Attempts: attempts, final: final}
}

func (e *RetrieveError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, attempt := range e.Attempts {
		parts[i] = attempt.Error()
	}
	return fmt.Sprintf("retrieve %s/%s: %v (attempts: %s)", e.File, e.Hash, e.final, strings.Join(parts, "; "))
}

func (e *RetrieveError) Unwrap() error { return e.final }

// NotFound 报告是否所有服务器都返回了 404。
func (e *RetrieveError) NotFound() bool {
	return errors.Is(e.final, ErrFileNotFound)
}
