// Package transport 提供 symsrv.Transport 的具体实现，并维护按键注册的全局表。
//
// 内置两种实现：
//   - "http"：基于 net/http 的阻塞式客户端，复用调优过的共享 http.Transport；
//   - "fasthttp"：基于 Fiber client（fasthttp）的客户端。
//
// 两者都必须把 404 映射为 symsrv.ErrFileNotFound，其余非 200 状态映射为 *symsrv.TransportError，
// 这样 Retriever 的回退逻辑与具体实现无关。配置项 Transport 决定启用哪一个。
package transport
