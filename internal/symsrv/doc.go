// Package symsrv implements the client side of the Microsoft symbol-server
// convention: the canonical hash strings derived from executable/PDB identity,
// the SRV*<cache>*<url> server list syntax, the single-tier/two-tier cache
// directory layout, and the cache-first retrieval loop that walks the server
// list in priority order.
//
// The package performs no HTTP itself. Remote fetches go through the Transport
// capability (see internal/transport) and cache writes go through cache.Store,
// so the same retrieval logic serves both the blocking Download call and the
// non-blocking Go/Pending pair.
package symsrv
