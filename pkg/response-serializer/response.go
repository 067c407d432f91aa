// Package serializer converts materialized responses to and from the bytes
// stored in the cache. Cached values are opaque to the store; this is the
// only place that knows their layout.
package serializer

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"
)

const storedAtHeaderName = "Rcache-Stored-At"

// StoredResponse is a materialized HTTP response together with the time it
// was written to the cache.
type StoredResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// The value of the clock when the entry was stored.
	StoredAt time.Time
}

// ResponseToBytes returns the HTTP/1.1 wire representation of the response.
// The storage time travels in a private header that is stripped on decode.
func ResponseToBytes(sRes StoredResponse) ([]byte, error) {
	header := sRes.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(storedAtHeaderName, strconv.FormatInt(sRes.StoredAt.Unix(), 10))
	res := &http.Response{
		StatusCode:    sRes.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(sRes.Body)),
		ContentLength: int64(len(sRes.Body)),
	}
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BytesToResponse decodes a stored response from its wire representation.
func BytesToResponse(b []byte) (StoredResponse, error) {
	sRes := StoredResponse{}
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return sRes, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return sRes, err
	}
	if storedAt, err := strconv.ParseInt(res.Header.Get(storedAtHeaderName), 10, 64); err == nil {
		sRes.StoredAt = time.Unix(storedAt, 0)
	}
	res.Header.Del(storedAtHeaderName)
	sRes.StatusCode = res.StatusCode
	sRes.Header = res.Header
	sRes.Body = body
	return sRes, nil
}
