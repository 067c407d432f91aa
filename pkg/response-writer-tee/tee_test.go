package tee

import (
	"io"
	"net/http/httptest"
	"testing"
)

func TestRecordsAndWritesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	saver := NewResponseSaver(rec)

	saver.Header().Set("Content-Type", "text/plain")
	saver.WriteHeader(418)
	io.WriteString(saver, "short and stout")

	if saver.StatusCode() != 418 {
		t.Fatalf("Recorded status is %d", saver.StatusCode())
	}
	if string(saver.Body()) != "short and stout" {
		t.Fatalf("Recorded body is %q", saver.Body())
	}
	if saver.HeaderSnapshot().Get("Content-Type") != "text/plain" {
		t.Fatal("Recorded headers are missing")
	}

	// and the client got the same response
	if rec.Code != 418 {
		t.Fatalf("Client status is %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("Client body is %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain" {
		t.Fatal("Client headers are missing")
	}
}

func TestImplicitWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	saver := NewResponseSaver(rec)

	io.WriteString(saver, "body first")

	if saver.StatusCode() != 200 {
		t.Fatalf("Status is %d, expected implicit 200", saver.StatusCode())
	}
	if rec.Code != 200 {
		t.Fatalf("Client status is %d", rec.Code)
	}
}

func TestRepeatedWriteHeaderIsIgnored(t *testing.T) {
	saver := NewResponseSaver(httptest.NewRecorder())
	saver.WriteHeader(301)
	saver.WriteHeader(500)
	if saver.StatusCode() != 301 {
		t.Fatalf("Status is %d, expected the first write to win", saver.StatusCode())
	}
}

func TestNilUnderlyingWriter(t *testing.T) {
	saver := NewResponseSaver(nil)
	io.WriteString(saver, "recorded only")
	if string(saver.Body()) != "recorded only" {
		t.Fatalf("Body is %q", saver.Body())
	}
}
