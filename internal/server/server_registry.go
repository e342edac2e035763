package server

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/any-hub/symhub/internal/config"
	"github.com/any-hub/symhub/internal/symsrv"
)

const (
	// LayoutSingleTier 表示缓存根目录按 name/hash/name 存放。
	LayoutSingleTier = "single-tier"
	// LayoutTwoTier 表示缓存根目录存在 index2.txt，额外带两字符前缀目录。
	LayoutTwoTier = "two-tier"
)

// ServerRoute 将单个 ServerSpec 与启动时解析好的上游 URL 聚合在一起，供诊断接口与日志复用。
type ServerRoute struct {
	// Priority 从 0 开始，数值越小越先尝试。
	Priority    int
	Spec        symsrv.ServerSpec
	UpstreamURL *url.URL
}

// Layout 实时检测缓存根目录的布局；index2.txt 可能在运行期间被创建或删除。
func (r ServerRoute) Layout() string {
	if symsrv.IsTwoTier(r.Spec.CachePath) {
		return LayoutTwoTier
	}
	return LayoutSingleTier
}

// ServerRegistry 保存按优先级排列的符号服务器列表。调用方应在启动阶段创建一次并复用。
type ServerRegistry struct {
	ordered []*ServerRoute
	list    symsrv.ServerList
}

// NewServerRegistry 根据配置构建服务器列表，SymbolPath 条目在前，[[Server]] 条目在后。
func NewServerRegistry(cfg *config.Config) (*ServerRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	list, err := cfg.ServerList()
	if err != nil {
		return nil, err
	}

	registry := &ServerRegistry{
		ordered: make([]*ServerRoute, 0, len(list)),
		list:    list,
	}
	for idx, spec := range list {
		upstreamURL, err := url.Parse(spec.ServerURL)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream for %s: %w", spec, err)
		}
		registry.ordered = append(registry.ordered, &ServerRoute{
			Priority:    idx,
			Spec:        spec,
			UpstreamURL: upstreamURL,
		})
	}
	return registry, nil
}

// Servers 返回服务器列表副本，可直接交给 symsrv.Retriever。
func (r *ServerRegistry) Servers() symsrv.ServerList {
	if r == nil || len(r.list) == 0 {
		return nil
	}
	return append(symsrv.ServerList(nil), r.list...)
}

// List 返回当前注册的 ServerRoute 列表（按优先级），用于 /-/servers 输出。
func (r *ServerRegistry) List() []ServerRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}

	result := make([]ServerRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}

// Len 返回服务器数量。
func (r *ServerRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}
