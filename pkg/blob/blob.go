// Package blob resolves stored image references to fetchable URLs.
package blob

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned by a Store for an unknown object.
var ErrNotFound = errors.New("blob: object not found")

// Store issues fetchable URLs for object paths.
type Store interface {
	ResolveURL(ctx context.Context, objectPath string) (string, error)
}

// ObjectPath extracts the object path from a reference. A reference is one
// of: a previously issued download URL carrying /o/<escaped-path>, a
// scheme://bucket/path URI, or a bare object path. ok is false when nothing
// usable can be extracted.
func ObjectPath(ref string) (p string, ok bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if i := strings.Index(ref, "/o/"); i >= 0 && strings.Contains(ref[:i], "://") {
		enc := ref[i+len("/o/"):]
		if j := strings.IndexAny(enc, "?#"); j >= 0 {
			enc = enc[:j]
		}
		if enc == "" {
			return "", false
		}
		if dec, err := url.PathUnescape(enc); err == nil {
			return dec, true
		}
		return enc, true
	}
	if scheme, rest, found := strings.Cut(ref, "://"); found {
		if scheme == "http" || scheme == "https" {
			// A plain web URL was never issued by a store.
			return "", false
		}
		_, objectPath, found := strings.Cut(rest, "/")
		if !found || objectPath == "" {
			return "", false
		}
		return objectPath, true
	}
	return strings.TrimPrefix(ref, "/"), true
}

// Resolver turns references into fetchable URLs, degrading every failure to
// "no image".
type Resolver struct {
	store Store
	log   *zap.Logger
}

// NewResolver returns a Resolver backed by store.
func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log.Named("blob")}
}

// Resolve returns a fresh fetchable URL for ref, or "" when ref is empty or
// cannot be resolved. Previously issued URLs are re-resolved so expired
// tokens are replaced. Plain web URLs that no store issued are returned
// unchanged. Resolve never retries.
func (r *Resolver) Resolve(ctx context.Context, ref string) string {
	if r == nil || strings.TrimSpace(ref) == "" {
		return ""
	}
	p, ok := ObjectPath(ref)
	if !ok {
		if isWebURL(ref) {
			return ref
		}
		r.log.Debug("malformed image reference", zap.String("ref", ref))
		return ""
	}
	if r.store == nil {
		return ""
	}
	u, err := r.store.ResolveURL(ctx, p)
	if err != nil {
		r.log.Debug("resolve image", zap.String("path", p), zap.Error(err))
		return ""
	}
	return u
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
