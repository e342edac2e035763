// Package server hosts the Fiber HTTP service and its request middleware chain.
// It turns symbol-server style paths (`/<name>/<hash>/<name>` and the two-tier
// `/<prefix>/<name>/<hash>/<name>`) into SymbolRoute values and hands them to
// an injected ProxyHandler together with the configured server list. The
// ServerRegistry built from config is shared with the diagnostics routes under
// `/-/`. Keep exports narrow and accept explicit dependencies.
package server
