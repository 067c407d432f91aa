package routecache

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/route-cache/route-cache/cache"

	"github.com/go-chi/chi/v5"
)

// AdminHandler returns the administrative surface of the cache: key
// inspection and explicit clearing. Mount it behind operator-only routing,
// it does no authentication of its own.
//
//	GET    /keys?pattern=...  list matching keys with their remaining TTL
//	DELETE /keys?pattern=...  clear matching keys (no pattern clears all)
func (rc *RouteCache) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/keys", rc.handleKeys)
	r.Delete("/keys", rc.handleClear)
	return r
}

type keyInfo struct {
	Key string `json:"key"`
	// Remaining TTL in seconds, -1 if the store cannot tell.
	TTL int64 `json:"ttl"`
}

type keysResponse struct {
	Count int       `json:"count"`
	Keys  []keyInfo `json:"keys"`
}

type clearResponse struct {
	Removed int `json:"removed"`
}

func (rc *RouteCache) handleKeys(w http.ResponseWriter, r *http.Request) {
	pattern := patternParam(r)
	keys, err := rc.cache.Keys(r.Context(), pattern)
	if err != nil {
		rc.adminError(w, err, "Could not list keys")
		return
	}
	response := keysResponse{Count: len(keys), Keys: make([]keyInfo, 0, len(keys))}
	for _, key := range keys {
		info := keyInfo{Key: key, TTL: -1}
		if ttl, ok, err := rc.cache.TTL(r.Context(), key); err == nil && ok {
			info.TTL = int64(ttl.Seconds())
		}
		response.Keys = append(response.Keys, info)
	}
	writeJSON(w, response)
}

func (rc *RouteCache) handleClear(w http.ResponseWriter, r *http.Request) {
	pattern := patternParam(r)
	removed, err := rc.invalidator.Invalidate(r.Context(), pattern)
	if err != nil {
		rc.adminError(w, err, "Could not clear keys")
		return
	}
	writeJSON(w, clearResponse{Removed: removed})
}

// adminError is the one place where store errors reach a caller: the admin
// surface is an explicit action, not a passive read path.
func (rc *RouteCache) adminError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, cache.ErrBadPattern) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rc.log.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func patternParam(r *http.Request) string {
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		return pattern
	}
	return "*"
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
