package blob

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	urls  map[string]string
	err   error
	calls []string
}

func (f *fakeStore) ResolveURL(_ context.Context, p string) (string, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.urls[p]
	if !ok {
		return "", ErrNotFound
	}
	return u, nil
}

func TestObjectPath(t *testing.T) {
	tests := map[string]struct {
		ref  string
		want string
		ok   bool
	}{
		"issued url":       {ref: "https://store.example/v0/b/bucket/o/users%2Fu%2Fx.png?alt=media&token=abc", want: "users/u/x.png", ok: true},
		"bad escape":       {ref: "https://store.example/o/users%2x.png", want: "users%2x.png", ok: true},
		"storage uri":      {ref: "gs://bucket/x.png", want: "x.png", ok: true},
		"nested uri":       {ref: "gs://bucket/users/u/x.png", want: "users/u/x.png", ok: true},
		"bucket only":      {ref: "gs://bucket", ok: false},
		"bare path":        {ref: "/users/u/x.png", want: "users/u/x.png", ok: true},
		"plain web url":    {ref: "https://cdn.example/x.png", ok: false},
		"empty":            {ref: "  ", ok: false},
		"empty issued url": {ref: "https://store.example/o/?alt=media", ok: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ObjectPath(tc.ref)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveFailSoft(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{urls: map[string]string{"x.png": "https://cdn.example/x.png?token=1"}}
	r := NewResolver(store, zaptest.NewLogger(t))

	assert.Equal(t, "https://cdn.example/x.png?token=1", r.Resolve(ctx, "gs://bucket/x.png"))
	assert.Equal(t, "", r.Resolve(ctx, ""))
	assert.Equal(t, "", r.Resolve(ctx, "gs://bucket/missing.png"))

	store.err = errors.New("network down")
	assert.Equal(t, "", r.Resolve(ctx, "gs://bucket/x.png"))
	assert.Len(t, store.calls, 3, "no retries")

	var nilResolver *Resolver
	assert.Equal(t, "", nilResolver.Resolve(ctx, "gs://bucket/x.png"))
}

// Web URLs that carry no object path were not issued by a blob store. They
// are shown as they are instead of being dropped.
func TestResolvePassesThroughForeignURLs(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{err: errors.New("must not be called")}
	r := NewResolver(store, zaptest.NewLogger(t))

	assert.Equal(t, "https://cdn.example/y.png", r.Resolve(ctx, "https://cdn.example/y.png"))
	assert.Equal(t, "http://cdn.example/y.png?w=64", r.Resolve(ctx, "http://cdn.example/y.png?w=64"))
	assert.Empty(t, store.calls)

	assert.Equal(t, "", r.Resolve(ctx, "gs://bucket"))
	assert.Empty(t, store.calls)
}

func TestResolveReissuesStoredURLs(t *testing.T) {
	store := &fakeStore{urls: map[string]string{"users/u/x.png": "fresh"}}
	r := NewResolver(store, nil)
	got := r.Resolve(context.Background(), "https://store.example/o/users%2Fu%2Fx.png?alt=media&token=expired")
	assert.Equal(t, "fresh", got)
}

func TestDiskStore(t *testing.T) {
	s, err := OpenDisk(t.TempDir(), "http://blobs.local")
	require.NoError(t, err)

	ref, err := s.Put("users/u/images/x.png", []byte("png bytes"))
	require.NoError(t, err)

	r := NewResolver(s, zaptest.NewLogger(t))
	u1 := r.Resolve(context.Background(), ref)
	require.NotEmpty(t, u1)
	assert.Contains(t, u1, "http://blobs.local/o/users%2Fu%2Fimages%2Fx.png?alt=media&token=")

	// Re-resolving an issued URL is stable.
	assert.Equal(t, u1, r.Resolve(context.Background(), u1))

	_, err = s.ResolveURL(context.Background(), "users/u/images/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "", r.Resolve(context.Background(), "local://diary/users/u/images/missing.png"))

	_, err = s.Put("users/", []byte("x"))
	assert.Error(t, err)
}

func TestDiskStoreServesIssuedURLs(t *testing.T) {
	s, err := OpenDisk(t.TempDir(), "")
	require.NoError(t, err)
	_, err = s.Put("a/b.txt", []byte("hello"))
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	defer srv.Close()
	s.baseURL = srv.URL

	u, err := s.ResolveURL(context.Background(), "a/b.txt")
	require.NoError(t, err)

	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	bad, err := http.Get(srv.URL + "/o/a%2Fb.txt?token=nope")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusForbidden, bad.StatusCode)
}
