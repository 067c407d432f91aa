package serializer

import (
	"net/http"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Add("X-Custom", "one")
	header.Add("X-Custom", "two")
	storedAt := time.Now().Truncate(time.Second)

	b, err := ResponseToBytes(StoredResponse{
		StatusCode: 201,
		Header:     header,
		Body:       []byte(`{"ok":true}`),
		StoredAt:   storedAt,
	})
	if err != nil {
		t.Fatal(err)
	}

	sRes, err := BytesToResponse(b)
	if err != nil {
		t.Fatal(err)
	}
	if sRes.StatusCode != 201 {
		t.Fatalf("Status is %d", sRes.StatusCode)
	}
	if string(sRes.Body) != `{"ok":true}` {
		t.Fatalf("Body is %q", sRes.Body)
	}
	if got := sRes.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type is %q", got)
	}
	if got := sRes.Header.Values("X-Custom"); len(got) != 2 {
		t.Fatalf("X-Custom values are %v", got)
	}
	if !sRes.StoredAt.Equal(storedAt) {
		t.Fatalf("StoredAt is %s, want %s", sRes.StoredAt, storedAt)
	}
	// the private storage header must not leak
	if got := sRes.Header.Get("Rcache-Stored-At"); got != "" {
		t.Fatalf("Storage header leaked: %s", got)
	}
}

func TestRoundTripEmptyHeader(t *testing.T) {
	b, err := ResponseToBytes(StoredResponse{
		StatusCode: 200,
		Body:       []byte("plain"),
		StoredAt:   time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	sRes, err := BytesToResponse(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(sRes.Body) != "plain" {
		t.Fatalf("Body is %q", sRes.Body)
	}
}

func TestBytesToResponseGarbage(t *testing.T) {
	if _, err := BytesToResponse([]byte("not a response")); err == nil {
		t.Fatal("Garbage decoded without error")
	}
}
