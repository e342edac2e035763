package config

import (
	"errors"
	"testing"
	"time"

	"github.com/any-hub/symhub/internal/symsrv"
)

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv(SymbolPathEnv, "")
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.UpstreamTimeout.DurationValue() != 45*time.Second {
		t.Fatalf("UpstreamTimeout 应被解析为 45s，got %s", cfg.Global.UpstreamTimeout.DurationValue())
	}
	if cfg.Global.AttemptTimeout.DurationValue() != 20*time.Second {
		t.Fatalf("整数 AttemptTimeout 应按秒解析，got %s", cfg.Global.AttemptTimeout.DurationValue())
	}
	if cfg.Global.LogMaxSize != 100 || !cfg.Global.LogCompress {
		t.Fatalf("日志默认值未生效: %+v", cfg.Global)
	}

	servers, err := cfg.ServerList()
	if err != nil {
		t.Fatalf("ServerList 返回错误: %v", err)
	}
	want := symsrv.ServerList{
		{CachePath: "./cache/ms", ServerURL: "https://msdl.microsoft.com/download/symbols"},
		{CachePath: "./cache/mozilla", ServerURL: "https://symbols.mozilla.org"},
	}
	if len(servers) != len(want) || servers[0] != want[0] || servers[1] != want[1] {
		t.Fatalf("SymbolPath 条目应排在 [[Server]] 之前: %+v", servers)
	}
}

func TestLoadRequiresServers(t *testing.T) {
	t.Setenv(SymbolPathEnv, "")
	if _, err := Load(testConfigPath(t, "missing.toml")); err == nil {
		t.Fatalf("没有任何符号服务器时应返回错误")
	}
}

func TestLoadFallsBackToNTSymbolPath(t *testing.T) {
	t.Setenv(SymbolPathEnv, "srv*/tmp/sym*https://example.com/symbols")
	cfg, err := Load(testConfigPath(t, "missing.toml"))
	if err != nil {
		t.Fatalf("应当使用 %s: %v", SymbolPathEnv, err)
	}
	if cfg.Global.SymbolPath != "srv*/tmp/sym*https://example.com/symbols" {
		t.Fatalf("unexpected SymbolPath %q", cfg.Global.SymbolPath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(SymbolPathEnv, "")
	t.Setenv("SYMHUB_LISTENPORT", "6100")
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 6100 {
		t.Fatalf("环境变量应覆盖 ListenPort，got %d", cfg.Global.ListenPort)
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateRejectsMalformedSymbolPath(t *testing.T) {
	cfg := validConfig()
	cfg.Global.SymbolPath = "cache*/tmp/sym"
	err := cfg.Validate()
	if !errors.Is(err, symsrv.ErrMalformedSpec) {
		t.Fatalf("expected ErrMalformedSpec, got %v", err)
	}
}

func TestValidateServerURL(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		shouldErr bool
	}{
		{"https ok", "https://msdl.microsoft.com/download/symbols", false},
		{"http ok", "http://localhost:8080/symbols", false},
		{"unc share", `\\fileserver\symbols`, true},
		{"ftp", "ftp://example.com/symbols", true},
		{"missing host", "https:///symbols", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Global.SymbolPath = ""
			cfg.Servers = []ServerConfig{{Name: "s", CachePath: "/tmp/sym", URL: tc.url}}
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for url %q", tc.url)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for url %q: %v", tc.url, err)
			}
		})
	}
}

func TestValidateServerTableFields(t *testing.T) {
	cfg := validConfig()
	cfg.Servers = []ServerConfig{{URL: "https://example.com"}}
	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "Server[#0].CachePath" {
		t.Fatalf("expected CachePath field error, got %v", err)
	}
}

func TestValidateTransport(t *testing.T) {
	cfg := validConfig()
	cfg.Global.Transport = "fasthttp"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fasthttp should be accepted: %v", err)
	}
	cfg.Global.Transport = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown transport should be rejected")
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:      5000,
			SymbolPath:      "SRV*/tmp/sym*https://msdl.microsoft.com/download/symbols",
			Transport:       "http",
			UpstreamTimeout: Duration(time.Second),
		},
	}
}
