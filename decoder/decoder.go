// Package decoder defines the pluggable image decoder interface consumed by
// the texture cache, and a registry that selects a decoder factory by key
// suffix.
//
// Built-in factories cover PNG and JPEG (standard library), BMP and WebP
// (golang.org/x/image), and TGA (github.com/ftrvxmtrx/tga). They are
// registered on the Default registry at init time; applications with custom
// formats register their own Factory.
package decoder

import (
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/gogpu/texload/gpu"
)

// Decoder errors.
var (
	// ErrNoDecoder is returned when no registered factory matches a key.
	ErrNoDecoder = errors.New("decoder: no decoder for key")

	// ErrNotOpened is returned when Decode is called before a successful
	// Open.
	ErrNotOpened = errors.New("decoder: not opened")

	// ErrBadRegion is returned when the destination region does not match
	// the decoded image size.
	ErrBadRegion = errors.New("decoder: destination region has wrong size")
)

// Decoder decodes one image resource.
//
// Open and Decode may run on a worker goroutine; a Decoder is never used
// from two goroutines at once.
type Decoder interface {
	// Open reads the image header. After a successful Open the
	// dimensions and pixel format are known.
	Open() error

	// Width returns the image width in pixels. Valid after Open.
	Width() int

	// Height returns the image height in pixels. Valid after Open.
	Height() int

	// Format returns the pixel format Decode will produce. Valid after
	// Open.
	Format() gpu.PixelFormat

	// Decode fills dst with tightly packed pixel rows. dst must be
	// exactly Width*Height*Format().BytesPerPixel() bytes.
	Decode(dst []byte) error

	// Close releases the underlying reader. Close is idempotent and
	// safe to call whether or not Open succeeded.
	Close() error
}

// Factory creates Decoders for one image format.
type Factory interface {
	// Description returns a user readable description of the decoder
	// and the file format it loads.
	Description() string

	// Extensions returns the lower-case file extensions this factory
	// handles, including the leading dot.
	Extensions() []string

	// New creates a Decoder reading from r. The key is retained for
	// error reporting only.
	New(key string, r io.ReadCloser) Decoder
}

// Source maps a resource key to a byte stream. The cache invokes it on a
// worker goroutine, so it may perform blocking I/O.
type Source func(key string) (io.ReadCloser, error)

// Registry maps key suffixes to decoder factories.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories []Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default is the registry used when a Manager is configured without one.
// The built-in factories are registered here at init time.
var Default = NewRegistry()

// Register adds a factory. Later registrations win when extensions
// overlap, so applications can override a built-in.
func (r *Registry) Register(f Factory) {
	if f == nil {
		panic("decoder: nil factory")
	}
	r.mu.Lock()
	r.factories = append(r.factories, f)
	r.mu.Unlock()
}

// Lookup returns the factory whose extension matches the key suffix,
// case-insensitively. The second result is false when no factory matches.
func (r *Registry) Lookup(key string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.factories) - 1; i >= 0; i-- {
		f := r.factories[i]
		for _, ext := range f.Extensions() {
			if hasSuffixFold(key, ext) {
				return f, true
			}
		}
	}
	return nil, false
}

// hasSuffixFold reports whether s ends with suffix under ASCII case
// folding.
func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
