package proxy

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/symhub/internal/cache"
	"github.com/any-hub/symhub/internal/logging"
	"github.com/any-hub/symhub/internal/server"
	"github.com/any-hub/symhub/internal/symsrv"
)

// Handler 把 SymbolRoute 交给 symsrv.Retriever 解析，并把落盘后的缓存文件流式返回给客户端。
type Handler struct {
	retriever *symsrv.Retriever
	store     cache.Store
	logger    *logrus.Logger
}

// NewHandler constructs a proxy handler sharing the retriever's cache store.
func NewHandler(retriever *symsrv.Retriever, store cache.Store, logger *logrus.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		store:     store,
		logger:    logger,
	}
}

// Handle 执行“缓存优先 → 按优先级回源 → 原子写缓存”，然后从缓存返回正文。
// 下载与客户端连接解耦：客户端中途断开不会打断正在进行的回源，文件仍会写入缓存。
func (h *Handler) Handle(c fiber.Ctx, route *server.SymbolRoute) error {
	started := time.Now()
	requestID := server.RequestID(c)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req := symsrv.Request{
		Info:    symsrv.RawHash(route.Hash),
		Name:    route.Name,
		Servers: route.Servers,
	}
	result, err := h.retriever.Go(context.WithoutCancel(ctx), req).Wait(ctx)
	if err != nil {
		return h.renderError(c, route, requestID, started, err)
	}

	opened, err := h.store.Open(ctx, result.Entry.Locator)
	if err != nil {
		h.logResult(c, route, result, requestID, started, err)
		return h.writeError(c, fiber.StatusInternalServerError, "cache_read_failed")
	}
	return h.serveCache(c, route, result, opened, requestID, started)
}

func (h *Handler) serveCache(
	c fiber.Ctx,
	route *server.SymbolRoute,
	result *symsrv.Result,
	opened *cache.ReadResult,
	requestID string,
	started time.Time,
) error {
	entry := opened.Entry
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set("X-Symhub-Cache-Hit", strconv.FormatBool(result.Status == symsrv.AlreadyExists))
	c.Set("X-Symhub-Server", result.Server.ServerURL)
	if result.Entry.Digest != "" {
		c.Set("X-Symhub-Digest", result.Entry.Digest)
	}
	if !entry.ModTime.IsZero() {
		c.Set(fiber.HeaderLastModified, entry.ModTime.UTC().Format(http.TimeFormat))
	}
	if requestID != "" {
		c.Set("X-Request-ID", requestID)
	}
	c.Status(fiber.StatusOK)

	if c.Method() == http.MethodHead {
		opened.Reader.Close()
		c.Response().Header.SetContentLength(int(entry.SizeBytes))
		h.logResult(c, route, result, requestID, started, nil)
		return nil
	}

	h.logResult(c, route, result, requestID, started, nil)
	// fasthttp 在响应写完后关闭 Reader。
	return c.SendStream(opened.Reader, int(entry.SizeBytes))
}

// renderError 将 symsrv 错误映射为 HTTP 状态与稳定的错误码。
func (h *Handler) renderError(c fiber.Ctx, route *server.SymbolRoute, requestID string, started time.Time, err error) error {
	status, code := classifyError(err)
	fields := logging.Merge(
		logging.RetrievalFields(route.Name, route.Hash, symsrv.RawHash(route.Hash).Kind()),
		logging.RequestFields(requestID, c.Method(), string(c.Request().URI().Path()), false),
	)
	fields["action"] = "proxy"
	fields["two_tier"] = route.TwoTier
	fields["status"] = status
	fields["error_code"] = code
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	entry := h.logger.WithFields(fields).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("proxy_failed")
	} else {
		entry.Info("proxy_rejected")
	}

	if requestID != "" {
		c.Set("X-Request-ID", requestID)
	}
	return h.writeError(c, status, code)
}

// classifyError 把获取错误映射为状态码与错误码。获取与客户端连接解耦，
// 504 只来自最后一次有效失败是上游超时的情况。
func classifyError(err error) (int, string) {
	var storageErr *symsrv.StorageError
	var transportErr *symsrv.TransportError
	switch {
	case errors.Is(err, symsrv.ErrFileNotFound):
		return fiber.StatusNotFound, "symbol_not_found"
	case errors.Is(err, symsrv.ErrInvalidName):
		return fiber.StatusBadRequest, "invalid_symbol_path"
	case errors.Is(err, symsrv.ErrNoServers):
		return fiber.StatusServiceUnavailable, "no_servers"
	case errors.As(err, &storageErr) && storageErr.Op == "write":
		return fiber.StatusInternalServerError, "cache_write_failed"
	case errors.As(err, &transportErr) && transportErr.Timeout():
		return fiber.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, context.Canceled):
		return fiber.StatusServiceUnavailable, "request_cancelled"
	default:
		return fiber.StatusBadGateway, "upstream_failed"
	}
}

func (h *Handler) writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *Handler) logResult(
	c fiber.Ctx,
	route *server.SymbolRoute,
	result *symsrv.Result,
	requestID string,
	started time.Time,
	err error,
) {
	fields := logging.Merge(
		logging.RetrievalFields(route.Name, route.Hash, symsrv.RawHash(route.Hash).Kind()),
		logging.RequestFields(requestID, c.Method(), string(c.Request().URI().Path()), result.Status == symsrv.AlreadyExists),
	)
	fields["action"] = "proxy"
	fields["two_tier"] = route.TwoTier
	fields["server"] = result.Server.ServerURL
	fields["retrieval"] = result.Status.String()
	fields["shared"] = result.Shared
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		h.logger.WithFields(fields).WithError(err).Error("proxy_failed")
		return
	}
	h.logger.WithFields(fields).Info("proxy_complete")
}
