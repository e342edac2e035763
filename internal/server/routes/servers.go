package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/symhub/internal/server"
	"github.com/any-hub/symhub/internal/transport"
)

// RegisterServerRoutes 暴露 /-/servers 与 /-/healthz 诊断接口，供运维确认服务器顺序与缓存布局。
func RegisterServerRoutes(app *fiber.App, registry *server.ServerRegistry, transportKey string) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/servers", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"transport": encodeTransport(transportKey),
			"servers":   encodeServers(registry.List()),
		})
	})

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"servers": registry.Len(),
		})
	})
}

type transportPayload struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

type serverPayload struct {
	Priority  int    `json:"priority"`
	Spec      string `json:"spec"`
	CachePath string `json:"cache_path"`
	ServerURL string `json:"server_url"`
	Host      string `json:"host"`
	Layout    string `json:"layout"`
}

func encodeTransport(key string) transportPayload {
	if key == "" {
		key = transport.DefaultKey
	}
	payload := transportPayload{Key: key}
	if meta, ok := transport.Resolve(key); ok {
		payload.Key = meta.Key
		payload.Description = meta.Description
	}
	return payload
}

func encodeServers(routes []server.ServerRoute) []serverPayload {
	result := make([]serverPayload, 0, len(routes))
	for _, route := range routes {
		host := ""
		if route.UpstreamURL != nil {
			host = route.UpstreamURL.Host
		}
		result = append(result, serverPayload{
			Priority:  route.Priority,
			Spec:      route.Spec.String(),
			CachePath: route.Spec.CachePath,
			ServerURL: route.Spec.ServerURL,
			Host:      host,
			Layout:    route.Layout(),
		})
	}
	return result
}
