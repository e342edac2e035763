// Package cache owns the on-disk side of symbol retrieval: existence checks,
// streaming reads, and atomic publishes into a symbol cache root. Writes go to
// a temp file beside the destination and are renamed into place, so readers
// (including other processes sharing the cache) never see a partial artifact
// and concurrent publishers of the same content-addressed file are harmless.
// The directory layout itself (single-tier vs two-tier) is decided by the
// symsrv package; this package only sees Root + relative Path locators.
package cache
