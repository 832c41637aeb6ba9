// Package sources holds the HTTP plumbing shared by the search API adapters.
//
// Client paces every request through a rate limiter, applies default headers,
// logs request timing, and maps transport, status, and JSON failures to
// adapter errors. The bing and reddit subpackages build their searches on it.
package sources
