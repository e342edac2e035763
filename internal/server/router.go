package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/symhub/internal/symsrv"
)

// SymbolRoute is the parsed form of a symbol request path plus the server list
// it should be resolved against.
type SymbolRoute struct {
	Name string
	Hash string
	// TwoTier reports whether the client used the `/<prefix>/...` form.
	TwoTier bool
	Servers symsrv.ServerList
}

// ProxyHandler describes the component responsible for resolving a symbol
// request. It allows injecting fake handlers during tests.
type ProxyHandler interface {
	Handle(fiber.Ctx, *SymbolRoute) error
}

// ProxyHandlerFunc adapts a function to the ProxyHandler interface.
type ProxyHandlerFunc func(fiber.Ctx, *SymbolRoute) error

// Handle makes ProxyHandlerFunc satisfy ProxyHandler.
func (f ProxyHandlerFunc) Handle(c fiber.Ctx, route *SymbolRoute) error {
	return f(c, route)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *ServerRegistry
	Proxy      ProxyHandler
	ListenPort int
}

const (
	contextKeyRoute     = "_symhub_route"
	contextKeyRequestID = "_symhub_request_id"
)

var errInvalidSymbolPath = errors.New("expected /<name>/<hash>/<name> or /<prefix>/<name>/<hash>/<name>")

// NewApp builds a Fiber application with symbol-path routing middleware and
// structured error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil || opts.Registry.Len() == 0 {
		return nil, errors.New("server registry is required")
	}
	if opts.Proxy == nil {
		return nil, errors.New("proxy handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts))

	app.All("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		route, ok := getRouteFromContext(c)
		if !ok {
			return renderInvalidPath(c, opts.Logger, string(c.Request().URI().Path()), errInvalidSymbolPath)
		}
		return opts.Proxy.Handle(c, route)
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并把请求路径解析为 SymbolRoute。
func requestContextMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		path := string(c.Request().URI().Path())
		if isDiagnosticsPath(path) {
			return c.Next()
		}

		switch c.Method() {
		case http.MethodGet, http.MethodHead:
		default:
			c.Set(fiber.HeaderAllow, "GET, HEAD")
			return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
				"error": "method_not_allowed",
			})
		}

		name, hash, twoTier, err := ParseSymbolPath(path)
		if err != nil {
			return renderInvalidPath(c, opts.Logger, path, err)
		}

		c.Locals(contextKeyRoute, &SymbolRoute{
			Name:    name,
			Hash:    hash,
			TwoTier: twoTier,
			Servers: opts.Registry.Servers(),
		})
		return c.Next()
	}
}

// ParseSymbolPath 解析 `/<name>/<hash>/<name>` 或 `/<prefix>/<name>/<hash>/<name>`。
// 首尾两个文件名按大小写不敏感比较；前缀必须等于文件名的两字符小写前缀。
func ParseSymbolPath(path string) (name, hash string, twoTier bool, err error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	var leaf string
	switch len(segments) {
	case 3:
		name, hash, leaf = segments[0], segments[1], segments[2]
	case 4:
		name, hash, leaf = segments[1], segments[2], segments[3]
		if segments[0] == "" || !strings.EqualFold(segments[0], symsrv.TwoTierPrefix(name)) {
			return "", "", false, fmt.Errorf("prefix %q does not match %q", segments[0], name)
		}
		twoTier = true
	default:
		return "", "", false, errInvalidSymbolPath
	}
	if name == "" || hash == "" || leaf == "" {
		return "", "", false, errInvalidSymbolPath
	}
	if !strings.EqualFold(name, leaf) {
		return "", "", false, fmt.Errorf("file name %q does not match %q", leaf, name)
	}
	return name, hash, twoTier, nil
}

func renderInvalidPath(c fiber.Ctx, logger *logrus.Logger, path string, err error) error {
	logger.WithFields(logrus.Fields{
		"action":     "route",
		"path":       path,
		"request_id": RequestID(c),
	}).WithError(err).Warn("invalid symbol path")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "invalid_symbol_path",
		"detail": err.Error(),
	})
}

func getRouteFromContext(c fiber.Ctx) (*SymbolRoute, bool) {
	if value := c.Locals(contextKeyRoute); value != nil {
		if route, ok := value.(*SymbolRoute); ok {
			return route, true
		}
	}
	return nil, false
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
