package config

import "testing"

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
SymbolPath = "SRV*/tmp/sym*https://example.com"
UpstreamTimeout = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	if _, err := Load(testConfigPath(t, "does-not-exist.toml")); err == nil {
		t.Fatalf("显式指定的配置文件不存在时应报错")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(SymbolPathEnv, "SRV*/tmp/sym*https://example.com/symbols")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("缺省 config.toml 不存在时应使用默认值: %v", err)
	}
	if cfg.Global.ListenPort != 5000 || cfg.Global.Transport != "http" {
		t.Fatalf("默认值未生效: %+v", cfg.Global)
	}
}
