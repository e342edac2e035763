package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述进程级运行参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	// SymbolPath 使用 `SRV*<cache>*<url>` 语法，多个条目以 `;` 分隔；为空时读取 _NT_SYMBOL_PATH。
	SymbolPath      string   `mapstructure:"SymbolPath"`
	Transport       string   `mapstructure:"Transport"`
	// UpstreamTimeout 限制等待上游响应头的时间（fasthttp 下为整个请求）。
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	// AttemptTimeout 限制单个服务器的一次完整尝试（含正文下载），0 表示不限制。
	AttemptTimeout Duration `mapstructure:"AttemptTimeout"`
	UserAgent      string   `mapstructure:"UserAgent"`
}

// ServerConfig 是 `[[Server]]` 表形式的符号服务器条目，追加在 SymbolPath 之后。
type ServerConfig struct {
	Name      string `mapstructure:"Name"`
	CachePath string `mapstructure:"CachePath"`
	URL       string `mapstructure:"URL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash"`
	Servers []ServerConfig `mapstructure:"Server"`
}

// Label 返回日志与错误信息中使用的条目名称。
func (s ServerConfig) Label(idx int) string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", idx)
}
