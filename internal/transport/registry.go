package transport

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/any-hub/symhub/internal/symsrv"
)

// DefaultKey 是未配置 Transport 时使用的实现。
const DefaultKey = "http"

// DefaultUserAgent 模仿 Microsoft 调试工具链的 UA，部分符号服务器据此放行。
const DefaultUserAgent = "Microsoft-Symbol-Server/10.0.0.0"

// Options 是构造具体实现时的公共参数。
type Options struct {
	// Timeout 是单个请求的整体超时，0 表示不限制（仍受 ctx 约束）。
	Timeout   time.Duration
	UserAgent string
}

// Factory 根据 Options 构造一个 Transport。
type Factory func(Options) (symsrv.Transport, error)

// Metadata 记录一个实现的静态信息，供配置校验和诊断端使用。
type Metadata struct {
	Key         string
	Description string
	Factory     Factory
}

var globalRegistry = newRegistry()

type registry struct {
	mu      sync.RWMutex
	entries map[string]Metadata
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]Metadata)}
}

// Register 将实现加入全局注册表，重复键会返回错误。
func Register(meta Metadata) error {
	return globalRegistry.register(meta)
}

// MustRegister 在注册失败时 panic，适合 init() 中调用。
func MustRegister(meta Metadata) {
	if err := Register(meta); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的元数据。
func Resolve(key string) (Metadata, bool) {
	return globalRegistry.resolve(key)
}

// Keys 返回按字母排序的已注册键。
func Keys() []string {
	return globalRegistry.keys()
}

// New 按键构造 Transport，空键回退到 DefaultKey。
func New(key string, opts Options) (symsrv.Transport, error) {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	meta, ok := Resolve(key)
	if !ok {
		return nil, fmt.Errorf("transport %s is not registered", key)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return meta.Factory(opts)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(meta Metadata) error {
	key := normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("transport key is required")
	}
	if meta.Factory == nil {
		return fmt.Errorf("transport %s: factory is required", key)
	}
	meta.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("transport %s already registered", key)
	}
	r.entries[key] = meta
	return nil
}

func (r *registry) resolve(key string) (Metadata, bool) {
	normalized := normalizeKey(key)
	if normalized == "" {
		return Metadata{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.entries[normalized]
	return meta, ok
}

func (r *registry) keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
