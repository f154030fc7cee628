package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/dd0wney/orbitgraph/pkg/logging"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
	"github.com/dd0wney/orbitgraph/pkg/parallel"
)

// ErrImageDecode is returned when photo bytes cannot be decoded.
var ErrImageDecode = errors.New("image decode failed")

// maxPhotoBytes bounds a single photo download.
const maxPhotoBytes = 8 << 20

// defaultScaledCapacity is how many scaled copies are kept across all
// references. Zooming without billboarding asks for a new size every step.
const defaultScaledCapacity = 64

// LoadState is the lifecycle of one image reference.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher returns the raw bytes behind an image reference.
type Fetcher func(ctx context.Context, ref string) ([]byte, error)

// DefaultFetcher reads bare paths and file:// references from disk and
// http(s):// references with client.
func DefaultFetcher(client *http.Client) Fetcher {
	return func(ctx context.Context, ref string) ([]byte, error) {
		if !strings.Contains(ref, "://") {
			return os.ReadFile(ref)
		}
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		switch u.Scheme {
		case "file":
			return os.ReadFile(u.Path)
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("fetching %s: status %d", ref, resp.StatusCode)
			}
			return io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
		default:
			return nil, fmt.Errorf("unsupported image scheme %q", u.Scheme)
		}
	}
}

type imageEntry struct {
	state LoadState
	img   image.Image
}

type scaledKey struct {
	ref  string
	size image.Point
}

// ImageCache loads images off the frame loop and hands out scaled copies.
// A reference moves idle -> loading -> loaded | failed exactly once; Request
// is idempotent. Loads that finish after Close are discarded.
type ImageCache struct {
	mu      sync.Mutex
	entries map[string]*imageEntry
	scaled  *lru.Cache[scaledKey, image.Image]
	pool    *parallel.WorkerPool
	fetch   Fetcher
	timeout time.Duration
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	metrics *metrics.Registry
	logger  logging.Logger
}

// ImageCacheOptions configures an ImageCache.
type ImageCacheOptions struct {
	// Fetch defaults to DefaultFetcher with a 10s client.
	Fetch   Fetcher
	Timeout time.Duration
	// ScaledCapacity bounds the scaled copies kept; least recently used
	// copies are dropped first.
	ScaledCapacity int
	Metrics        *metrics.Registry
	Logger         logging.Logger
}

// NewImageCache creates a cache that runs loads on pool. A nil pool makes
// Request a no-op; use LoadSync in that case.
func NewImageCache(pool *parallel.WorkerPool, opts ImageCacheOptions) *ImageCache {
	if opts.Fetch == nil {
		opts.Fetch = DefaultFetcher(&http.Client{Timeout: 10 * time.Second})
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.ScaledCapacity <= 0 {
		opts.ScaledCapacity = defaultScaledCapacity
	}
	// only fails for a non-positive size
	scaled, _ := lru.New[scaledKey, image.Image](opts.ScaledCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	return &ImageCache{
		entries: make(map[string]*imageEntry),
		scaled:  scaled,
		pool:    pool,
		fetch:   opts.Fetch,
		timeout: opts.Timeout,
		ctx:     ctx,
		cancel:  cancel,
		metrics: opts.Metrics,
		logger:  logging.OrNop(opts.Logger).With(logging.Component("images")),
	}
}

// State returns the load state of ref.
func (c *ImageCache) State(ref string) LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[ref]; ok {
		return e.state
	}
	return Idle
}

// Request starts an asynchronous load of ref if none has been issued and
// returns the state after the call. If the pool queue is full the entry
// stays idle and the next frame retries.
func (c *ImageCache) Request(ref string) LoadState {
	if ref == "" || c.closed.Load() {
		return Idle
	}

	c.mu.Lock()
	e, ok := c.entries[ref]
	if ok && e.state != Idle {
		c.mu.Unlock()
		return e.state
	}
	if !ok {
		e = &imageEntry{}
		c.entries[ref] = e
	}
	e.state = Loading
	c.mu.Unlock()

	if c.pool == nil || !c.pool.TrySubmit(func() { c.load(ref) }) {
		c.mu.Lock()
		e.state = Idle
		c.mu.Unlock()
		return Idle
	}
	return Loading
}

// LoadSync loads ref on the calling goroutine. Already loaded or failed
// references return immediately.
func (c *ImageCache) LoadSync(ref string) error {
	c.mu.Lock()
	e, ok := c.entries[ref]
	if ok && (e.state == Loaded || e.state == Failed) {
		state := e.state
		c.mu.Unlock()
		if state == Failed {
			return fmt.Errorf("%w: %s", ErrImageDecode, ref)
		}
		return nil
	}
	if !ok {
		c.entries[ref] = &imageEntry{state: Loading}
	}
	c.mu.Unlock()

	return c.load(ref)
}

func (c *ImageCache) load(ref string) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	img, err := c.fetchDecode(ctx, ref)

	if c.closed.Load() {
		return context.Canceled
	}

	c.mu.Lock()
	e, ok := c.entries[ref]
	if !ok {
		e = &imageEntry{}
		c.entries[ref] = e
	}
	if err != nil {
		e.state = Failed
	} else {
		e.state = Loaded
		e.img = img
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("image load failed", logging.Path(ref), logging.Error(err))
		c.record("failed")
		return err
	}
	c.logger.Debug("image loaded", logging.Path(ref))
	c.record("loaded")
	return nil
}

func (c *ImageCache) fetchDecode(ctx context.Context, ref string) (image.Image, error) {
	data, err := c.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, ref, err)
	}
	return img, nil
}

func (c *ImageCache) record(status string) {
	if c.metrics != nil {
		c.metrics.RecordImageLoad(status)
	}
}

// Scaled returns ref center-cropped and scaled to cover a w x h box, or
// false when the image is not loaded. Recently used sizes are cached.
func (c *ImageCache) Scaled(ref string, w, h int) (image.Image, bool) {
	if w <= 0 || h <= 0 {
		return nil, false
	}
	c.mu.Lock()
	e, ok := c.entries[ref]
	if !ok || e.state != Loaded {
		c.mu.Unlock()
		return nil, false
	}
	src := e.img
	c.mu.Unlock()

	key := scaledKey{ref: ref, size: image.Pt(w, h)}
	if im, ok := c.scaled.Get(key); ok {
		return im, true
	}
	im := scaleCover(src, w, h)
	c.scaled.Add(key, im)
	return im, true
}

// scaleCover crops src to the aspect ratio of w x h around its center and
// resamples it with Catmull-Rom.
func scaleCover(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	crop := b
	if sw*h > sh*w {
		cw := sh * w / h
		crop.Min.X = b.Min.X + (sw-cw)/2
		crop.Max.X = crop.Min.X + cw
	} else {
		ch := sw * h / w
		crop.Min.Y = b.Min.Y + (sh-ch)/2
		crop.Max.Y = crop.Min.Y + ch
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// Counts returns how many references are loaded, failed and in flight.
func (c *ImageCache) Counts() (loaded, failed, loading int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		switch e.state {
		case Loaded:
			loaded++
		case Failed:
			failed++
		case Loading:
			loading++
		}
	}
	return loaded, failed, loading
}

// Close marks the cache dead and cancels in-flight fetches. Results that
// arrive afterwards are dropped.
func (c *ImageCache) Close() {
	c.closed.Store(true)
	c.cancel()
}
