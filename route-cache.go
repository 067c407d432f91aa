// Package routecache is a declarative response caching layer for HTTP
// request handlers. It decides, per request, whether a previously stored
// response can be served instead of executing the handler, and takes care of
// keying, expiry and invalidation of handler output.
//
// Caching is an optimization, never a correctness requirement: every error
// on the read or write hot path degrades to executing the handler, and only
// explicit administrative operations surface errors to their caller.
package routecache

import (
	"context"
	"net/http"
	"time"

	"github.com/route-cache/route-cache/cache"
	serializer "github.com/route-cache/route-cache/pkg/response-serializer"
	tee "github.com/route-cache/route-cache/pkg/response-writer-tee"

	"github.com/rs/zerolog"
)

type Config struct {
	// Storage for cache entries.
	Cache cache.CacheProvider
	// Route policies. An empty registry is created if nil.
	Registry *PolicyRegistry
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Timeout for the detached cache writes. Defaults to 5 seconds.
	WriteTimeout time.Duration
}

// RouteCache is the cache-aside orchestrator.
// It holds no per-request state of its own; all cache state lives in the
// injected provider, so a single instance serves any number of concurrent
// requests.
type RouteCache struct {
	cache        cache.CacheProvider
	registry     *PolicyRegistry
	invalidator  *Invalidator
	log          zerolog.Logger
	writeTimeout time.Duration
}

// CreateCache initializes the route-cache instance.
func CreateCache(config Config) *RouteCache {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	registry := config.Registry
	if registry == nil {
		registry = NewPolicyRegistry()
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}

	return &RouteCache{
		cache:        config.Cache,
		registry:     registry,
		invalidator:  NewInvalidator(config.Cache, &logger),
		log:          logger,
		writeTimeout: writeTimeout,
	}
}

// Registry returns the policy registry backing this cache.
func (rc *RouteCache) Registry() *PolicyRegistry {
	return rc.registry
}

// Invalidator returns the invalidation engine backing this cache.
func (rc *RouteCache) Invalidator() *Invalidator {
	return rc.invalidator
}

// Response is a materialized handler response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Producer computes the real response on a cache miss.
type Producer func() (*Response, error)

// Execute runs the cache-aside protocol for a single request.
//
// When pol is nil, the request method is not GET, or the policy condition
// rejects the request, produce runs and its response passes through
// untouched; the store is never contacted. Otherwise the resolved key is
// looked up: a hit returns the stored response without running produce, and
// a miss runs produce and, if the response is worth storing, writes it to
// the store in a detached goroutine.
//
// Store errors are absorbed and degrade to a miss. The only error Execute
// returns is the one produce itself returned.
func (rc *RouteCache) Execute(ctx context.Context, req RequestView, pol *Policy, produce Producer) (*Response, Result, error) {
	if pol == nil || req.Method != http.MethodGet || !pol.Condition(req) {
		res, err := produce()
		return res, Result{Disposition: DispositionSkip}, err
	}

	key := pol.CacheKey(req)
	log := rc.log.With().Str("key", key).Logger()

	if value, ok, err := rc.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("Cache read failed, treating as miss")
	} else if ok {
		if sRes, err := serializer.BytesToResponse(value); err != nil {
			log.Warn().Err(err).Msg("Could not decode stored response, treating as miss")
		} else {
			result := Result{
				Disposition: DispositionHit,
				Key:         key,
				TTL:         rc.remainingTTL(ctx, key, pol.TTL),
			}
			return &Response{
				StatusCode: sRes.StatusCode,
				Header:     sRes.Header,
				Body:       sRes.Body,
			}, result, nil
		}
	}

	res, err := produce()
	result := Result{Disposition: DispositionMiss, Key: key, TTL: pol.TTL}
	if err != nil {
		return res, result, err
	}
	if storable(res) {
		rc.storeAsync(log, key, res, pol.TTL)
	}
	return res, result, nil
}

// Middleware wraps next with cache-aside handling for routes registered in
// the policy registry, and with write-path invalidation for mutating routes.
// Requests to routes without a registered policy pass through with zero
// store calls and zero cache headers.
func (rc *RouteCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := ViewOf(r)
		rc.serve(w, r, req, rc.registry.Resolve(req.Method, req.Path), next)
		// invalidation runs after the response is on its way to the
		// client, but before the middleware returns control, so the next
		// request through the pipeline sees the invalidated state
		rc.invalidateAfter(r.Context(), req)
	})
}

// Handler wraps next with the given policy directly, bypassing the registry.
// Defaults are merged here, at attachment time.
func (rc *RouteCache) Handler(pol *Policy, next http.Handler) http.Handler {
	var merged *Policy
	if pol != nil {
		m := pol.withDefaults()
		merged = &m
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc.serve(w, r, ViewOf(r), merged, next)
	})
}

func (rc *RouteCache) serve(w http.ResponseWriter, r *http.Request, req RequestView, pol *Policy, next http.Handler) {
	// a route without a policy must not even reveal that a cache exists
	if pol == nil {
		next.ServeHTTP(w, r)
		return
	}
	if req.Method != http.MethodGet || !pol.Condition(req) {
		w.Header().Set(CacheStatusHeader, Result{Disposition: DispositionSkip}.HeaderValue())
		next.ServeHTTP(w, r)
		return
	}

	key := pol.CacheKey(req)
	log := rc.log.With().Str("key", key).Logger()

	if value, ok, err := rc.cache.Get(r.Context(), key); err != nil {
		log.Warn().Err(err).Msg("Cache read failed, treating as miss")
	} else if ok {
		if sRes, err := serializer.BytesToResponse(value); err != nil {
			log.Warn().Err(err).Msg("Could not decode stored response, treating as miss")
		} else {
			result := Result{
				Disposition: DispositionHit,
				Key:         key,
				TTL:         rc.remainingTTL(r.Context(), key, pol.TTL),
			}
			log.Debug().Int("ttl", int(result.TTL.Seconds())).Msg("Serving stored response")
			sendStored(w, sRes, result)
			return
		}
	}

	// miss: materialize the handler response while streaming it to the client
	result := Result{Disposition: DispositionMiss, Key: key, TTL: pol.TTL}
	w.Header().Set(CacheStatusHeader, result.HeaderValue())
	saver := tee.NewResponseSaver(w)
	next.ServeHTTP(saver, r)

	res := &Response{
		StatusCode: saver.StatusCode(),
		Header:     saver.HeaderSnapshot(),
		Body:       saver.Body(),
	}
	if storable(res) {
		rc.storeAsync(log, key, res, pol.TTL)
	}
}

func (rc *RouteCache) invalidateAfter(ctx context.Context, req RequestView) {
	if req.Method == http.MethodGet {
		return
	}
	for _, pattern := range rc.registry.InvalidationsFor(req.Method, req.Path) {
		if _, err := rc.invalidator.Invalidate(ctx, pattern); err != nil {
			rc.log.Error().Err(err).Str("pattern", pattern).Msg("Write-path invalidation failed")
		}
	}
}

// storeAsync writes the response to the cache in a detached goroutine.
// The response is already on its way to the client, so a failed write is
// logged and never delays or fails the request. The write also continues if
// the surrounding request is cancelled; a cancelled request's value may
// still end up cached.
func (rc *RouteCache) storeAsync(log zerolog.Logger, key string, res *Response, ttl time.Duration) {
	value, err := serializer.ResponseToBytes(serializer.StoredResponse{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
		StoredAt:   time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("Could not encode response for caching")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rc.writeTimeout)
		defer cancel()
		if err := rc.cache.Set(ctx, key, value, ttl); err != nil {
			log.Error().Err(err).Msg("Could not write to cache")
			return
		}
		log.Trace().Dur("ttl", ttl).Msg("Cache write")
	}()
}

// remainingTTL asks the store how long the entry has left.
// Falls back to the assigned TTL if the store cannot tell.
func (rc *RouteCache) remainingTTL(ctx context.Context, key string, assigned time.Duration) time.Duration {
	if ttl, ok, err := rc.cache.TTL(ctx, key); err == nil && ok && ttl > 0 {
		return ttl
	}
	return assigned
}

// Only successful, non-empty responses are stored.
func storable(res *Response) bool {
	return res != nil && len(res.Body) > 0 && res.StatusCode < 400
}

func sendStored(w http.ResponseWriter, sRes serializer.StoredResponse, result Result) {
	copyHeader(w.Header(), sRes.Header)
	w.Header().Set(CacheStatusHeader, result.HeaderValue())
	status := sRes.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(sRes.Body)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
