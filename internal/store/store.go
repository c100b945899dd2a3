// Package store defines the durable asset store the pipeline caches hero
// images in and mirrors renditions to. It is the only component that retains
// state across pipeline runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound reports a missing key on Get.
var ErrNotFound = errors.New("store: key not found")

// ErrNotAddressable reports a backend whose objects have no fetchable URL,
// such as the local filesystem store.
var ErrNotAddressable = errors.New("store: objects are not addressable by URL")

// StoreError wraps a backend failure with the operation and key involved.
// Callers decide severity: the resolver treats a read failure as a cache
// miss, while a failed write after generation is product-fatal.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store is the asset store contract.
type Store interface {
	// Exists reports whether the key holds an object.
	Exists(ctx context.Context, key string) (bool, error)
	// Get fetches the object bytes, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put persists bytes under key and returns the stored location.
	Put(ctx context.Context, key string, data []byte) (string, error)
	// URL returns a fetchable URL for the key, or ErrNotAddressable when
	// the backend cannot serve objects to remote services.
	URL(key string) (string, error)
}

// HeroKey is the cache key for a campaign/product hero image.
func HeroKey(campaign, product, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("generated/%s_%s_hero.%s", campaign, product, ext)
}

// RenditionKey namespaces a composed rendition by campaign and product.
func RenditionKey(campaign, product, filename string) string {
	return fmt.Sprintf("renditions/%s/%s/%s", campaign, product, filename)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("store: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("store: invalid key")
	}
	return cleaned, nil
}
