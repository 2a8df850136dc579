package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var imageBytes = []byte("\x89PNG fake image payload")

func newImageServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cam.png", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(imageBytes)
	})
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(imageBytes)
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch_Success(t *testing.T) {
	srv := newImageServer(t, nil)
	dir := t.TempDir()
	f := NewFetcher(Config{TempDir: dir})

	res, err := f.Fetch(context.Background(), srv.URL+"/cam.png")
	require.NoError(t, err)

	assert.Equal(t, ".png", filepath.Ext(res.Path))
	assert.Equal(t, dir, filepath.Dir(res.Path))
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, int64(len(imageBytes)), res.Size)
	content, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, imageBytes, content)

	require.NoError(t, res.Release())
	_, err = os.Stat(res.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.NoError(t, res.Release(), "release is idempotent")
}

func TestFetcher_Fetch_ExtensionFromContentType(t *testing.T) {
	srv := newImageServer(t, nil)
	f := NewFetcher(Config{TempDir: t.TempDir()})

	res, err := f.Fetch(context.Background(), srv.URL+"/render")
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, ".jpg", filepath.Ext(res.Path))
}

func TestFetcher_Fetch_Failures(t *testing.T) {
	srv := newImageServer(t, nil)
	f := NewFetcher(Config{TempDir: t.TempDir(), Timeout: 200 * time.Millisecond, MaxBytes: 32})

	tests := []struct {
		name   string
		url    string
		status int
		target error
	}{
		{name: "not found", url: srv.URL + "/missing.png", status: http.StatusNotFound},
		{name: "timeout", url: srv.URL + "/slow.png"},
		{name: "too large", url: srv.URL + "/big.png", target: ErrTooLarge},
		{name: "unsupported scheme", url: "ftp://example.com/cam.png", target: ErrUnsupportedScheme},
		{name: "s3 without client", url: "s3://bucket/cam.png", target: ErrUnsupportedScheme},
		{name: "malformed url", url: "http://[::1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.Fetch(context.Background(), tc.url)

			require.Error(t, err)
			assert.Nil(t, res)
			var fetchErr *Error
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tc.url, fetchErr.URL)
			if tc.status != 0 {
				assert.Equal(t, tc.status, fetchErr.StatusCode)
			}
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}

	entries, err := os.ReadDir(f.config.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed fetches leave no files behind")
}

func TestFetcher_Fetch_Cache(t *testing.T) {
	var hits int32
	srv := newImageServer(t, &hits)
	f := NewFetcher(Config{TempDir: t.TempDir(), CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		res, err := f.Fetch(context.Background(), srv.URL+"/cam.png")
		require.NoError(t, err)
		require.NoError(t, res.Release())
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_Fetch_RateLimited(t *testing.T) {
	srv := newImageServer(t, nil)
	f := NewFetcher(Config{TempDir: t.TempDir(), RatePerSecond: 1000, Burst: 1})

	res, err := f.Fetch(context.Background(), srv.URL+"/cam.png")
	require.NoError(t, err)
	defer res.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL+"/cam.png")
	assert.Error(t, err)
}

type mockObjectGetter struct {
	mock.Mock
}

func (m *mockObjectGetter) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func TestFetcher_Fetch_S3(t *testing.T) {
	getter := new(mockObjectGetter)
	getter.On("GetObject", mock.Anything, &s3.GetObjectInput{
		Bucket: aws.String("surveys"),
		Key:    aws.String("site-1/cam 1.jpeg"),
	}).Return(&s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(imageBytes)),
		ContentType: aws.String("image/jpeg"),
	}, nil)
	f := NewFetcher(Config{TempDir: t.TempDir()}, WithObjectGetter(getter))

	res, err := f.Fetch(context.Background(), "s3://surveys/site-1/cam%201.jpeg")
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, ".jpeg", filepath.Ext(res.Path))
	assert.Equal(t, "image/jpeg", res.ContentType)
	getter.AssertExpectations(t)
}

func TestFetcher_Fetch_S3Error(t *testing.T) {
	getter := new(mockObjectGetter)
	getter.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
	f := NewFetcher(Config{TempDir: t.TempDir()}, WithObjectGetter(getter))

	_, err := f.Fetch(context.Background(), "s3://surveys/cam.png")

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.EqualError(t, fetchErr.Err, "access denied")
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("/a/b/CAM.PNG", ""))
	assert.Equal(t, ".jpg", extension("/render", "image/jpeg; charset=binary"))
	assert.Equal(t, "", extension("/render", ""))
	assert.Equal(t, "", extension("/file.this-is-not-an-ext", "garbage/"))
}
