package symsrv

import (
	"strings"
)

const srvDirective = "SRV"

// ServerSpec 是用户以 SRV*<cache_path>*<server_url> 声明的单个符号服务器。
type ServerSpec struct {
	// ServerURL 是符号服务器根地址，例如 https://msdl.microsoft.com/download/symbols。
	ServerURL string
	// CachePath 是本地缓存根目录，例如 C:\Symcache。
	CachePath string
}

// ParseServerSpec 解析 SRV*<cache_path>*<server_url>。关键字大小写不敏感，
// 两个字段原样保留，不做尾部斜杠等归一化。
func ParseServerSpec(raw string) (ServerSpec, error) {
	directives := strings.Split(raw, "*")
	if !strings.EqualFold(directives[0], srvDirective) || len(directives) != 3 {
		return ServerSpec{}, &SpecError{Input: raw}
	}
	if directives[2] == "" {
		return ServerSpec{}, &SpecError{Input: raw}
	}
	return ServerSpec{
		CachePath: directives[1],
		ServerURL: directives[2],
	}, nil
}

// String 还原为 SRV*<cache_path>*<server_url> 形式。
func (s ServerSpec) String() string {
	return srvDirective + "*" + s.CachePath + "*" + s.ServerURL
}

// ServerList 是按优先级排序的服务器列表，第一个最先尝试。
type ServerList []ServerSpec

// ParseServerList 以 ';' 切分并逐个解析，任一失败立即返回，不产出部分列表。
func ParseServerList(raw string) (ServerList, error) {
	tokens := strings.Split(raw, ";")
	list := make(ServerList, 0, len(tokens))
	for _, token := range tokens {
		spec, err := ParseServerSpec(token)
		if err != nil {
			return nil, err
		}
		list = append(list, spec)
	}
	return list, nil
}

// String 以 ';' 拼接各服务器的规范形式。
func (l ServerList) String() string {
	parts := make([]string, len(l))
	for i, spec := range l {
		parts[i] = spec.String()
	}
	return strings.Join(parts, ";")
}
