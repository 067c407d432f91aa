package routecache

import (
	"net/http"
	"net/url"
)

// RequestView is a read-only projection of an inbound request, as seen by
// cache policy conditions and key functions. It is valid for the duration of
// a single cache decision.
type RequestView struct {
	// HTTP request method.
	Method string
	// URL path, without the query string.
	Path string
	// Raw query string exactly as received.
	RawQuery string
	// Parsed query parameters.
	Query url.Values
}

// ViewOf creates the request view for an incoming request.
func ViewOf(r *http.Request) RequestView {
	return RequestView{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Query:    r.URL.Query(),
	}
}

// RequestURI returns the path and query in the form used for key derivation.
// The query string is not normalized.
func (v RequestView) RequestURI() string {
	if v.RawQuery == "" {
		return v.Path
	}
	return v.Path + "?" + v.RawQuery
}
