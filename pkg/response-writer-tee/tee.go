// Package tee provides an http.ResponseWriter that materializes the response
// while writing it through to the client.
package tee

import (
	"bytes"
	"net/http"
)

// ResponseSaver is a wrapper around http.ResponseWriter that records the
// status, headers and body of the response as the handler writes them.
// The recorded response can then be handed to the cache explicitly, instead
// of intercepting the write path of a shared response object.
type ResponseSaver struct {
	rw           http.ResponseWriter
	body         *bytes.Buffer
	header       http.Header
	status       int
	wroteHeaders bool
}

// NewResponseSaver returns a new ResponseSaver.
// If rw is not nil, the response is written (tee'd) to it in addition to
// being recorded.
func NewResponseSaver(rw http.ResponseWriter) *ResponseSaver {
	return &ResponseSaver{
		rw:     rw,
		body:   &bytes.Buffer{},
		header: http.Header{},
	}
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Header() http.Header {
	return t.header
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) WriteHeader(statusCode int) {
	if t.wroteHeaders {
		return
	}
	t.wroteHeaders = true
	t.status = statusCode
	if t.rw != nil {
		copyHeader(t.rw.Header(), t.header)
		t.rw.WriteHeader(statusCode)
	}
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Write(b []byte) (int, error) {
	// write headers if not already written
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	if t.rw != nil {
		t.rw.Write(b)
	}
	return t.body.Write(b)
}

// StatusCode returns the recorded status code.
// It defaults to 200 if the handler never called WriteHeader.
func (t *ResponseSaver) StatusCode() int {
	if t.status == 0 {
		return http.StatusOK
	}
	return t.status
}

// HeaderSnapshot returns a copy of the recorded headers.
func (t *ResponseSaver) HeaderSnapshot() http.Header {
	return t.header.Clone()
}

// Body returns the recorded response body.
func (t *ResponseSaver) Body() []byte {
	return t.body.Bytes()
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
