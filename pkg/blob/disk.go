package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
)

// DiskStore keeps objects on disk and issues download URLs of the form
// <base>/o/<escaped-path>?alt=media&token=<token>. Tokens are stable per
// object path so re-resolving an unchanged object yields the same URL.
type DiskStore struct {
	d       *diskv.Diskv
	baseURL string
}

var _ Store = (*DiskStore)(nil)

var tokenSpace = uuid.MustParse("8f0d4a43-3f6b-4d4f-9b57-3c1f1c0d7a11")

// OpenDisk opens a store rooted at basePath issuing URLs under baseURL.
func OpenDisk(basePath, baseURL string) (*DiskStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("blob: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("blob: ensure base path: %w", err)
	}
	return &DiskStore{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: objectTransform,
			InverseTransform:  objectInverse,
			CacheSizeMax:      8 << 20,
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put stores data at objectPath and returns the storage URI referencing it.
func (s *DiskStore) Put(objectPath string, data []byte) (string, error) {
	p, err := clean(objectPath)
	if err != nil {
		return "", err
	}
	if err := s.d.Write(p, data); err != nil {
		return "", fmt.Errorf("blob: write %s: %w", p, err)
	}
	return "local://diary/" + p, nil
}

// Get returns the object stored at objectPath.
func (s *DiskStore) Get(objectPath string) ([]byte, error) {
	p, err := clean(objectPath)
	if err != nil {
		return nil, err
	}
	b, err := s.d.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: read %s: %w", p, err)
	}
	return b, nil
}

func (s *DiskStore) ResolveURL(ctx context.Context, objectPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := clean(objectPath)
	if err != nil {
		return "", err
	}
	if !s.d.Has(p) {
		return "", fmt.Errorf("blob: %s: %w", p, ErrNotFound)
	}
	return fmt.Sprintf("%s/o/%s?alt=media&token=%s", s.baseURL, url.PathEscape(p), token(p)), nil
}

// ServeHTTP serves the URLs issued by ResolveURL.
func (s *DiskStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := ObjectPath("http://" + r.Host + r.URL.EscapedPath())
	if !ok || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if r.URL.Query().Get("token") != token(p) {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	b, err := s.Get(p)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(b))
	_, _ = w.Write(b)
}

func token(p string) string {
	return uuid.NewSHA1(tokenSpace, []byte(p)).String()
}

func clean(objectPath string) (string, error) {
	p := path.Clean("/" + objectPath)[1:]
	if p == "" || strings.HasSuffix(objectPath, "/") {
		return "", fmt.Errorf("blob: invalid object path %q", objectPath)
	}
	return p, nil
}

func objectTransform(key string) *diskv.PathKey {
	dir, file := path.Split(key)
	var parts []string
	if dir = strings.Trim(dir, "/"); dir != "" {
		parts = strings.Split(dir, "/")
	}
	return &diskv.PathKey{Path: parts, FileName: file}
}

func objectInverse(pk *diskv.PathKey) string {
	return path.Join(append(append([]string(nil), pk.Path...), pk.FileName)...)
}
