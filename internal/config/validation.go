package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/any-hub/symhub/internal/symsrv"
	"github.com/any-hub/symhub/internal/transport"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.AttemptTimeout.DurationValue() < 0 {
		return newFieldError("Global.AttemptTimeout", "不能为负数")
	}
	if _, ok := transport.Resolve(g.Transport); !ok {
		return newFieldError("Global.Transport", "仅支持 "+strings.Join(transport.Keys(), "|"))
	}

	servers, err := c.ServerList()
	if err != nil {
		return err
	}
	for _, server := range servers {
		if err := validateUpstream(server.ServerURL); err != nil {
			return fmt.Errorf("%s: %w", server, err)
		}
	}
	return nil
}

// ServerList 按优先级合并 SymbolPath 与 [[Server]] 条目：SymbolPath 在前，表条目按文件顺序追加。
func (c *Config) ServerList() (symsrv.ServerList, error) {
	var list symsrv.ServerList
	if c.Global.SymbolPath != "" {
		parsed, err := symsrv.ParseServerList(c.Global.SymbolPath)
		if err != nil {
			return nil, fmt.Errorf("Global.SymbolPath: %w", err)
		}
		list = append(list, parsed...)
	}

	for idx, entry := range c.Servers {
		label := entry.Label(idx)
		cachePath := strings.TrimSpace(entry.CachePath)
		serverURL := strings.TrimSpace(entry.URL)
		if cachePath == "" {
			return nil, newFieldError(serverField(label, "CachePath"), "不能为空")
		}
		if serverURL == "" {
			return nil, newFieldError(serverField(label, "URL"), "不能为空")
		}
		list = append(list, symsrv.ServerSpec{CachePath: cachePath, ServerURL: serverURL})
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("至少需要配置一个符号服务器（SymbolPath、%s 或 [[Server]]）", SymbolPathEnv)
	}
	return list, nil
}

func validateUpstream(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
