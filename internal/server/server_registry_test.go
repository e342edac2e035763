package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/any-hub/symhub/internal/config"
	"github.com/any-hub/symhub/internal/symsrv"
)

func TestServerRegistryKeepsPriorityOrder(t *testing.T) {
	cfg := &config.Config{
		Global: config.GlobalConfig{
			SymbolPath: "SRV*/tmp/a*https://a.example.com;SRV*/tmp/b*https://b.example.com",
		},
		Servers: []config.ServerConfig{
			{CachePath: "/tmp/c", URL: "http://c.example.com:8080/syms"},
		},
	}

	registry, err := NewServerRegistry(cfg)
	if err != nil {
		t.Fatalf("NewServerRegistry: %v", err)
	}
	routes := registry.List()
	if len(routes) != 3 || registry.Len() != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}
	for i, route := range routes {
		if route.Priority != i {
			t.Fatalf("route %d has priority %d", i, route.Priority)
		}
	}
	if routes[2].UpstreamURL.Host != "c.example.com:8080" {
		t.Fatalf("unexpected upstream host %s", routes[2].UpstreamURL.Host)
	}

	servers := registry.Servers()
	servers[0] = symsrv.ServerSpec{}
	if registry.Servers()[0].CachePath != "/tmp/a" {
		t.Fatalf("Servers should return a copy")
	}
}

func TestServerRouteLayoutFollowsMarker(t *testing.T) {
	root := t.TempDir()
	route := ServerRoute{Spec: symsrv.ServerSpec{CachePath: root, ServerURL: "https://example.com"}}
	if route.Layout() != LayoutSingleTier {
		t.Fatalf("expected single-tier, got %s", route.Layout())
	}
	if err := os.WriteFile(filepath.Join(root, symsrv.TwoTierMarker), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if route.Layout() != LayoutTwoTier {
		t.Fatalf("expected two-tier, got %s", route.Layout())
	}
}

func TestNewServerRegistryRejectsEmptyConfig(t *testing.T) {
	if _, err := NewServerRegistry(nil); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := NewServerRegistry(&config.Config{}); err == nil {
		t.Fatalf("config without servers should fail")
	}
}
