package routecache

import (
	"time"

	cachekey "github.com/route-cache/route-cache/pkg/cache-key"
)

const (
	// DefaultTTL is used when a policy does not declare a TTL.
	DefaultTTL = 5 * time.Minute
	// DefaultPrefix is prepended to cache keys when a policy does not
	// declare a prefix.
	DefaultPrefix = "route:"
)

// Policy declares how the responses of a single route are cached.
// The zero value with defaults merged caches GET responses for five minutes
// under a generated `route:`-prefixed key.
type Policy struct {
	// Time to live for cached responses.
	TTL time.Duration
	// Explicit cache key. The stored key is Prefix + Key.
	Key string
	// Custom key function, consulted when Key is empty.
	KeyFunc func(RequestView) string
	// Condition gates whether caching applies to a given request at all.
	Condition func(RequestView) bool
	// Prefix for explicit and generated keys.
	Prefix string
}

// withDefaults returns a copy of the policy with defaults merged in.
// Merging happens once, when the policy is registered, not on every lookup.
func (p Policy) withDefaults() Policy {
	if p.TTL <= 0 {
		p.TTL = DefaultTTL
	}
	if p.Prefix == "" {
		p.Prefix = DefaultPrefix
	}
	if p.Condition == nil {
		p.Condition = func(RequestView) bool { return true }
	}
	return p
}

// CacheKey resolves the cache key for the given request.
// An explicit key wins over the key function, which wins over the key
// generated from method and URI.
func (p Policy) CacheKey(req RequestView) string {
	if p.Key != "" {
		return p.Prefix + p.Key
	}
	if p.KeyFunc != nil {
		return p.KeyFunc(req)
	}
	return cachekey.GenerateKey(req.Method, req.RequestURI(), p.Prefix)
}

// PolicyRegistry associates routes with their declared cache policies and
// write-path invalidation rules. It is populated once at startup when routes
// are registered; lookups after that are read-only, so no locking is needed.
type PolicyRegistry struct {
	policies      map[string]*Policy
	invalidations map[string][]string
}

func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{
		policies:      make(map[string]*Policy),
		invalidations: make(map[string][]string),
	}
}

// Register declares the cache policy for a route.
// Defaults are merged at registration time.
func (pr *PolicyRegistry) Register(method, path string, policy Policy) {
	merged := policy.withDefaults()
	pr.policies[routeID(method, path)] = &merged
}

// RegisterInvalidation declares key patterns to invalidate once a mutating
// route has responded.
func (pr *PolicyRegistry) RegisterInvalidation(method, path string, patterns ...string) {
	id := routeID(method, path)
	pr.invalidations[id] = append(pr.invalidations[id], patterns...)
}

// Resolve returns the policy declared for the route.
// It returns nil when the route declared none, in which case the cache is a
// complete no-op for the request.
func (pr *PolicyRegistry) Resolve(method, path string) *Policy {
	return pr.policies[routeID(method, path)]
}

// InvalidationsFor returns the invalidation patterns declared for the route.
func (pr *PolicyRegistry) InvalidationsFor(method, path string) []string {
	return pr.invalidations[routeID(method, path)]
}

func routeID(method, path string) string {
	return method + " " + path
}
