package routecache

import (
	"context"

	"github.com/route-cache/route-cache/cache"

	"github.com/rs/zerolog"
)

// Invalidator removes families of cached responses by glob pattern.
// It is used by the administrative surface and by the write-path middleware;
// both go through Invalidate, so counting and logging live in one place.
type Invalidator struct {
	cache cache.CacheProvider
	log   zerolog.Logger
}

// NewInvalidator creates an invalidator on top of the given provider.
// The global zerolog logger is not consulted; pass a logger or get silence.
func NewInvalidator(provider cache.CacheProvider, logger *zerolog.Logger) *Invalidator {
	var log zerolog.Logger
	if logger != nil {
		log = *logger
	} else {
		log = zerolog.Nop()
	}
	return &Invalidator{
		cache: provider,
		log:   log,
	}
}

// Invalidate removes every key matching the pattern and returns the number
// of keys removed. Zero matches is not an error. A malformed pattern is:
// invalidation is an explicit action, so unlike the read path its errors are
// surfaced to the caller.
func (i *Invalidator) Invalidate(ctx context.Context, pattern string) (int, error) {
	if err := cache.ValidatePattern(pattern); err != nil {
		return 0, err
	}
	count, err := i.cache.DeletePattern(ctx, pattern)
	if err != nil {
		i.log.Error().Err(err).Str("pattern", pattern).Msg("Could not invalidate keys")
		return count, err
	}
	i.log.Debug().Str("pattern", pattern).Int("count", count).Msg("Invalidated cache keys")
	return count, nil
}

// InvalidateRoute removes cached responses whose key mentions the given
// route prefix, i.e. everything matching `route:*<routePrefix>*`.
func (i *Invalidator) InvalidateRoute(ctx context.Context, routePrefix string) (int, error) {
	return i.Invalidate(ctx, DefaultPrefix+"*"+routePrefix+"*")
}
