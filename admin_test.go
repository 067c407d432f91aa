package routecache

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/route-cache/route-cache/cache"
)

func adminRequest(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAdminListKeys(t *testing.T) {
	provider := cache.NewMemCache()
	seedKeys(t, provider, "route:a", "route:b", "expensive:c")
	admin := newTestCache(provider).AdminHandler()

	rec := adminRequest(t, admin, "GET", "/keys?pattern=route:*")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status is %d", rec.Code)
	}
	var response keysResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Count != 2 {
		t.Fatalf("Count is %d, expected 2", response.Count)
	}
	for _, info := range response.Keys {
		if info.TTL <= 0 || info.TTL > 60 {
			t.Fatalf("Key %s has TTL %d, expected about a minute", info.Key, info.TTL)
		}
	}
}

func TestAdminClearByPattern(t *testing.T) {
	provider := cache.NewMemCache()
	seedKeys(t, provider, "expensive:a", "expensive:b", "other:c")
	admin := newTestCache(provider).AdminHandler()

	rec := adminRequest(t, admin, "DELETE", "/keys?pattern=expensive:*")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status is %d", rec.Code)
	}
	var response clearResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Removed != 2 {
		t.Fatalf("Removed %d keys, expected 2", response.Removed)
	}
}

func TestAdminClearAll(t *testing.T) {
	provider := cache.NewMemCache()
	seedKeys(t, provider, "route:a", "expensive:b")
	rcache := newTestCache(provider)
	admin := rcache.AdminHandler()

	rec := adminRequest(t, admin, "DELETE", "/keys")
	var response clearResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Removed != 2 {
		t.Fatalf("Removed %d keys, expected 2", response.Removed)
	}

	rec = adminRequest(t, admin, "GET", "/keys")
	var listing keysResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if listing.Count != 0 {
		t.Fatalf("Cache still holds %d keys", listing.Count)
	}
}

func TestAdminBadPattern(t *testing.T) {
	admin := newTestCache(cache.NewMemCache()).AdminHandler()
	rec := adminRequest(t, admin, "DELETE", "/keys?pattern=%20%20")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status is %d, expected 400", rec.Code)
	}
}
