package blobstore

// Notes:
// - Memory and filesystem stores run the shared BlobStore contract.
// - MinIO and GCS talk to httptest servers that answer only the calls
//   under test; upload paths are exercised in deployment.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/alnah/go-printables/assetstore"
	"github.com/alnah/go-printables/assetstore/storetest"
	"github.com/alnah/go-printables/internal/imageload"
)

// ---------------------------------------------------------------------------
// Contract
// ---------------------------------------------------------------------------

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()

	storetest.BlobStores(t, func(*testing.T) assetstore.BlobStore { return NewMemoryStore() })
}

func TestFSStore_Contract(t *testing.T) {
	t.Parallel()

	storetest.BlobStores(t, func(t *testing.T) assetstore.BlobStore {
		s, err := NewFSStore(filepath.Join(t.TempDir(), "blobs"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

func TestMemoryStore_URLIsDataURI(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ref, err := s.Put(context.Background(), "a/b.png", []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.URL(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if want := imageload.DataURI("image/png", []byte{1, 2, 3}); u != want {
		t.Errorf("URL() = %q, want %q", u, want)
	}
	if _, err := s.URL(context.Background(), "missing"); !errors.Is(err, assetstore.ErrBlobNotFound) {
		t.Errorf("URL(missing) = %v, want ErrBlobNotFound", err)
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	data := []byte("abc")
	ref, _ := s.Put(context.Background(), "k", data, "")
	data[0] = 'z'
	got, _ := s.Get(context.Background(), ref)
	got[1] = 'z'
	again, _ := s.Get(context.Background(), ref)
	if string(again) != "abc" {
		t.Errorf("stored data mutated: %q", again)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

func TestFSStore_URLAndLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewFSStore(root)
	if err != nil {
		t.Fatal(err)
	}
	key := "resource/1/image/gold%20star/x.png"
	ref, err := s.Put(context.Background(), key, tinyPNG(t), "image/png")
	if err != nil {
		t.Fatal(err)
	}

	onDisk := filepath.Join(s.Root(), filepath.FromSlash(key))
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("blob not at %s: %v", onDisk, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(onDisk))
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the blob", len(entries))
	}

	u, err := s.URL(context.Background(), ref)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Scheme != "file" || filepath.FromSlash(parsed.Path) != onDisk {
		t.Errorf("URL() = %q, want file URL of %s", u, onDisk)
	}

	// The renderer's loader must read the escaped path back.
	if _, err := imageload.New().Load(context.Background(), u); err != nil {
		t.Errorf("loading %q: %v", u, err)
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../x", "a/../../x", "/etc/passwd", `a\b`, "a//b", "./a", "a/."} {
		if _, err := s.Put(context.Background(), key, []byte("x"), ""); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) = %v, want ErrInvalidKey", key, err)
		}
	}
	if err := s.Delete(context.Background(), "../outside"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Delete(escaping) = %v, want ErrInvalidKey", err)
	}
}

func TestFSStore_CancelledContext(t *testing.T) {
	t.Parallel()

	s, _ := NewFSStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "a.png", []byte("x"), ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() = %v, want context.Canceled", err)
	}
}

func TestNewFSStore_EmptyRoot(t *testing.T) {
	t.Parallel()

	if _, err := NewFSStore(""); err == nil {
		t.Error("NewFSStore(\"\") should fail")
	}
}

// ---------------------------------------------------------------------------
// Keys and URLs
// ---------------------------------------------------------------------------

func TestValidateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key     string
		wantErr bool
	}{
		{"a.png", false},
		{"style/123/frame/gold/abc.png", false},
		{"a%2Fb/c.png", false},
		{"", true},
		{"..", true},
		{"a/../b", true},
		{"/abs", true},
		{"trailing/", true},
		{strings.Repeat("k", MaxKeyLength+1), true},
	}
	for _, tt := range tests {
		if err := validateKey(tt.key); (err != nil) != tt.wantErr {
			t.Errorf("validateKey(%q) = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	got := publicURL("https://cdn.example.com/assets", "resource/1/image/gold star/x.png")
	if want := "https://cdn.example.com/assets/resource/1/image/gold%20star/x.png"; got != want {
		t.Errorf("publicURL() = %q, want %q", got, want)
	}

	var o remoteOptions
	WithPublicBaseURL(" https://cdn.example.com/ ")(&o)
	if o.publicBaseURL != "https://cdn.example.com" {
		t.Errorf("WithPublicBaseURL trimmed to %q", o.publicBaseURL)
	}
	o = defaultRemoteOptions()
	WithURLExpiry(-1)(&o)
	if o.urlExpiry != DefaultURLExpiry {
		t.Errorf("negative expiry accepted: %v", o.urlExpiry)
	}
}

// ---------------------------------------------------------------------------
// MinIO
// ---------------------------------------------------------------------------

func newFakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.Trim(r.URL.Path, "/") {
		case "assets":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMinioStore_MissingObject(t *testing.T) {
	t.Parallel()

	srv := newFakeS3(t)
	s, err := NewMinioStore(context.Background(), MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "assets",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinioStore() = %v", err)
	}
	if err := s.Delete(context.Background(), "gone.png"); !errors.Is(err, assetstore.ErrBlobNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrBlobNotFound", err)
	}

	u, err := s.URL(context.Background(), "resource/1/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(u, "/assets/resource/1/a.png") || !strings.Contains(u, "X-Amz-Signature=") {
		t.Errorf("URL() = %q, want presigned object URL", u)
	}
}

func TestMinioStore_PublicURL(t *testing.T) {
	t.Parallel()

	srv := newFakeS3(t)
	s, err := NewMinioStore(context.Background(), MinioConfig{
		Endpoint: strings.TrimPrefix(srv.URL, "http://"),
		Bucket:   "assets",
		Region:   "us-east-1",
	}, WithPublicBaseURL("https://cdn.example.com"))
	if err != nil {
		t.Fatal(err)
	}
	u, _ := s.URL(context.Background(), "a/b.png")
	if u != "https://cdn.example.com/a/b.png" {
		t.Errorf("URL() = %q", u)
	}
}

func TestNewMinioStore_RequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewMinioStore(context.Background(), MinioConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Error("missing bucket accepted")
	}
}

// ---------------------------------------------------------------------------
// GCS
// ---------------------------------------------------------------------------

func TestGCSStore_MissingObject(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"No such object"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(context.Background(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	s := newGCSStore(client, "assets", WithPublicBaseURL("https://storage.googleapis.com/assets"))
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Delete(context.Background(), "gone.png"); !errors.Is(err, assetstore.ErrBlobNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrBlobNotFound", err)
	}
	u, _ := s.URL(context.Background(), "a.png")
	if u != "https://storage.googleapis.com/assets/a.png" {
		t.Errorf("URL() = %q", u)
	}
}

func TestNewGCSStore_RequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewGCSStore(context.Background(), GCSConfig{}); err == nil {
		t.Error("missing bucket accepted")
	}
}
