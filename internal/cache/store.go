package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// Store 负责符号缓存的读写。磁盘布局由调用方通过 Locator.Path 决定：
//
//	<Root>/<name>/<hash>/<name>          # single-tier
//	<Root>/<prefix>/<name>/<hash>/<name> # two-tier
type Store interface {
	// Stat 返回条目的文件信息。若不存在则返回 ErrNotFound。
	Stat(ctx context.Context, locator Locator) (*Entry, error)

	// Open 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Open(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将正文写入缓存并产出新的 Entry。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败或取消时清理临时文件。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个缓存条目：缓存根目录 + 根目录下的相对路径（操作系统风格）。
type Locator struct {
	Root string
	Path string
}

// Entry 描述一个缓存条目，包含绝对文件路径及文件信息。
// Digest 仅在 Put 时计算（BLAKE3 十六进制），Stat/Open 返回空串。
type Entry struct {
	Locator   Locator   `json:"locator"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
	Digest    string    `json:"digest,omitempty"`
}

// ReadResult 组合 Entry 与正文 Reader，便于代理层直接将 Body 流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrInvalidLocator 表示 Locator 为空或逃逸出缓存根目录。
	ErrInvalidLocator = errors.New("invalid cache locator")
)
