package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// NewStore 构建磁盘缓存。缓存根目录随 Locator 传入，同一实例可服务多个 SRV 缓存目录。
func NewStore() Store {
	return &fileStore{now: time.Now}
}

// fileStore 不持有任何跨请求的可变状态；同一文件的并发发布依赖 rename 的原子性。
type fileStore struct {
	now func() time.Time
}

func (s *fileStore) Stat(ctx context.Context, locator Locator) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func (s *fileStore) Open(ctx context.Context, locator Locator) (*ReadResult, error) {
	entry, err := s.Stat(ctx, locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(entry.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &ReadResult{
		Entry:  *entry,
		Reader: f,
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(dir, ".symhub-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	hasher := blake3.New()
	written, err := copyWithContext(ctx, io.MultiWriter(tempFile, hasher), body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = s.now().UTC()
	}
	if err := os.Chtimes(tempName, modTime, modTime); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: written,
		ModTime:   modTime,
		Digest:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// entryPath 拼出绝对路径，并拒绝逃逸出缓存根目录的相对路径。
func (s *fileStore) entryPath(locator Locator) (string, error) {
	if locator.Root == "" {
		return "", fmt.Errorf("%w: cache root required", ErrInvalidLocator)
	}
	rel := filepath.Clean(locator.Path)
	if rel == "." || rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator.Path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes cache root", ErrInvalidLocator, locator.Path)
	}
	return filepath.Join(locator.Root, rel), nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
