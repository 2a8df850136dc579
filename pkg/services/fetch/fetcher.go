package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 20 << 20
)

var (
	ErrTooLarge          = errors.New("resource exceeds size limit")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,5}$`)

// ObjectGetter is the subset of the S3 client used for s3:// sources.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
	// TempDir holds downloaded files; empty means os.TempDir().
	TempDir string
	// CacheTTL enables an in-memory cache of fetched bytes keyed by URL.
	CacheTTL time.Duration
	// RatePerSecond throttles outbound fetches; zero disables throttling.
	RatePerSecond float64
	Burst         int
}

// Error is the failure result of a fetch.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resource is a fetched payload materialized as a temporary file. The
// file name keeps the URL extension so consumers can infer the format.
type Resource struct {
	Path        string
	ContentType string
	Size        int64
}

// Release deletes the backing file. It is safe to call more than once.
func (r *Resource) Release() error {
	if r == nil || r.Path == "" {
		return nil
	}
	err := os.Remove(r.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type Fetcher struct {
	config  Config
	client  *http.Client
	objects ObjectGetter
	cache   *cache.Cache
	limiter *rate.Limiter
}

type Option func(*Fetcher)

// WithHTTPClient replaces the default client. The configured timeout still
// applies per fetch through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithObjectGetter enables s3://bucket/key sources.
func WithObjectGetter(g ObjectGetter) Option {
	return func(f *Fetcher) {
		f.objects = g
	}
}

func NewFetcher(config Config, opts ...Option) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	f := &Fetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
	if config.CacheTTL > 0 {
		f.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	if config.RatePerSecond > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type payload struct {
	data        []byte
	contentType string
}

// Fetch downloads rawURL into a temporary file. Every failure is returned as
// an *Error; the caller owns the returned resource and must Release it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	logger := zerolog.Ctx(ctx)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	p, cached := f.fromCache(rawURL)
	if !cached {
		ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &Error{URL: rawURL, Err: err}
			}
		}

		switch u.Scheme {
		case "http", "https":
			p, err = f.fetchHTTP(ctx, u)
		case "s3":
			p, err = f.fetchS3(ctx, u)
		default:
			err = &Error{URL: rawURL, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
		}
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			f.cache.SetDefault(rawURL, p)
		}
	}

	res, err := f.materialize(p, extension(u.Path, p.contentType))
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	logger.Debug().
		Str("url", rawURL).
		Bool("cached", cached).
		Int64("bytes", res.Size).
		Msg("resource fetched")
	return res, nil
}

func (f *Fetcher) fromCache(key string) (payload, bool) {
	if f.cache == nil {
		return payload{}, false
	}
	v, ok := f.cache.Get(key)
	if !ok {
		return payload{}, false
	}
	p, ok := v.(payload)
	return p, ok
}

func (f *Fetcher) fetchHTTP(ctx context.Context, u *url.URL) (payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return payload{}, &Error{URL: u.String(), Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return payload{}, &Error{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return payload{}, &Error{URL: u.String(), StatusCode: resp.StatusCode}
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return payload{}, &Error{URL: u.String(), Err: err}
	}
	return payload{data: data, contentType: resp.Header.Get("Content-Type")}, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, u *url.URL) (payload, error) {
	if f.objects == nil {
		return payload{}, &Error{URL: u.String(), Err: fmt.Errorf("%w: s3 client not configured", ErrUnsupportedScheme)}
	}
	key := strings.TrimPrefix(u.Path, "/")
	out, err := f.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return payload{}, &Error{URL: u.String(), Err: err}
	}
	defer out.Body.Close()

	data, err := f.readLimited(out.Body)
	if err != nil {
		return payload{}, &Error{URL: u.String(), Err: err}
	}
	return payload{data: data, contentType: aws.ToString(out.ContentType)}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, f.config.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if n > f.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) materialize(p payload, ext string) (*Resource, error) {
	file, err := os.CreateTemp(f.config.TempDir, "deck-resource-*"+ext)
	if err != nil {
		return nil, err
	}
	res := &Resource{Path: file.Name(), ContentType: p.contentType, Size: int64(len(p.data))}
	if _, err := file.Write(p.data); err != nil {
		file.Close()
		_ = res.Release()
		return nil, err
	}
	if err := file.Close(); err != nil {
		_ = res.Release()
		return nil, err
	}
	return res, nil
}

// extension returns the URL path extension, falling back to one derived
// from the content type.
func extension(urlPath, contentType string) string {
	if ext := path.Ext(urlPath); extPattern.MatchString(ext) {
		return strings.ToLower(ext)
	}
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
