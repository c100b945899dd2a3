package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
)

// HTTPStoreOptions configures the remote object store client.
type HTTPStoreOptions struct {
	// BaseURL is the bucket root, e.g. https://assets.example.com/creative.
	BaseURL        string
	APIToken       string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// HTTPStore talks to an S3-compatible object endpoint over plain HTTP verbs:
// HEAD for existence, GET for fetch, PUT for persist.
type HTTPStore struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewHTTPStore constructs a client with sane defaults and injected
// dependencies.
func NewHTTPStore(opts HTTPStoreOptions) (*HTTPStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("store: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &HTTPStore{
		baseURL:    baseURL,
		apiToken:   strings.TrimSpace(opts.APIToken),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (s *HTTPStore) objectURL(key string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	parts := strings.Split(cleanKey, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return s.baseURL + "/" + strings.Join(parts, "/"), nil
}

// URL returns the public object URL for the key.
func (s *HTTPStore) URL(key string) (string, error) {
	target, err := s.objectURL(key)
	if err != nil {
		return "", &StoreError{Op: "url", Key: key, Err: err}
	}
	return target, nil
}

func (s *HTTPStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}
	return req, nil
}

// Exists issues a HEAD request for the key.
func (s *HTTPStore) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.objectURL(key)
	if err != nil {
		return false, &StoreError{Op: "exists", Key: key, Err: err}
	}
	req, err := s.newRequest(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, &StoreError{Op: "exists", Key: key, Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, &StoreError{Op: "exists", Key: key, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, &StoreError{Op: "exists", Key: key, Err: fmt.Errorf("status %d", resp.StatusCode)}
	default:
		return true, nil
	}
}

// Get fetches the object bytes for the key.
func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	target, err := s.objectURL(key)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	req, err := s.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &StoreError{Op: "get", Key: key, Err: ErrNotFound}
	}
	if resp.StatusCode >= 300 {
		return nil, &StoreError{Op: "get", Key: key, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StoreError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// Put uploads bytes under the key and returns the object URL.
func (s *HTTPStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	target, err := s.objectURL(key)
	if err != nil {
		return "", &StoreError{Op: "put", Key: key, Err: err}
	}
	req, err := s.newRequest(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return "", &StoreError{Op: "put", Key: key, Err: err}
	}
	req.Header.Set("Content-Type", contentTypeForKey(key))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &StoreError{Op: "put", Key: key, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return "", &StoreError{Op: "put", Key: key, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("store: uploaded object")
	return target, nil
}

func contentTypeForKey(key string) string {
	lower := strings.ToLower(key)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
