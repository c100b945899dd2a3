package store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPStore(t *testing.T, handler http.HandlerFunc) *HTTPStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewHTTPStore(HTTPStoreOptions{
		BaseURL:    srv.URL + "/bucket",
		APIToken:   "secret-token",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestHTTPStoreExists(t *testing.T) {
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Path == "/bucket/generated/present.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ctx := context.Background()
	if ok, err := s.Exists(ctx, "generated/present.png"); err != nil || !ok {
		t.Fatalf("Exists(present) = %v, %v", ok, err)
	}
	if ok, err := s.Exists(ctx, "generated/absent.png"); err != nil || ok {
		t.Fatalf("Exists(absent) = %v, %v", ok, err)
	}
}

func TestHTTPStoreGetNotFound(t *testing.T) {
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := s.Get(context.Background(), "generated/absent.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestHTTPStorePutUploadsBytes(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	})

	url, err := s.Put(context.Background(), "renditions/Demo/Mug/500x500_Demo_Mug.jpg", []byte("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if string(gotBody) != "payload" {
		t.Fatalf("uploaded body = %q", gotBody)
	}
	if gotContentType != "image/jpeg" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if url == "" {
		t.Fatal("expected object URL")
	}
}

func TestHTTPStoreServerErrorIsStoreError(t *testing.T) {
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	var storeErr *StoreError
	if _, err := s.Get(context.Background(), "generated/key.png"); !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestHTTPStoreURLIsFetchable(t *testing.T) {
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {})

	url, err := s.URL("generated/Demo_Mug_hero.png")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	want := s.baseURL + "/generated/Demo_Mug_hero.png"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}
}

func TestHTTPStoreURLRejectsBadKey(t *testing.T) {
	s := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := s.URL("../escape"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}
