package routecache

import (
	"fmt"
	"time"
)

// Disposition describes the outcome of a cache decision.
type Disposition string

const (
	// DispositionHit means a stored response was served and the handler
	// did not run.
	DispositionHit Disposition = "hit"
	// DispositionMiss means the handler ran and its response may be stored.
	DispositionMiss Disposition = "miss"
	// DispositionSkip means caching did not apply to the request.
	DispositionSkip Disposition = "skip"
)

// CacheStatusHeader carries the cache observability signals on responses
// that went through a declared policy: disposition, resolved key, and
// effective TTL. Responses of routes without a policy never carry it.
const CacheStatusHeader = "Cache-Status"

// Result reports the outcome of a single cache-mediated call.
type Result struct {
	Disposition Disposition
	// Resolved cache key. Empty when the disposition is skip.
	Key string
	// Effective TTL: the remaining TTL on a hit, the assigned TTL on a miss.
	TTL time.Duration
}

// HeaderValue renders the result as a Cache-Status header value, in the
// style of RFC 9211.
func (res Result) HeaderValue() string {
	switch res.Disposition {
	case DispositionHit:
		return fmt.Sprintf("route-cache; hit; key=%q; ttl=%d", res.Key, int(res.TTL.Seconds()))
	case DispositionMiss:
		return fmt.Sprintf("route-cache; fwd=uri-miss; key=%q; ttl=%d", res.Key, int(res.TTL.Seconds()))
	default:
		return "route-cache; fwd=bypass"
	}
}
