package texload

import (
	"fmt"
	"sync"

	"github.com/gogpu/texload/async"
	"github.com/gogpu/texload/decoder"
	"github.com/gogpu/texload/gpu"
	"github.com/gogpu/texload/staging"
)

// placeholderPix is the 2x2 gray checkerboard shown while a texture loads
// (or permanently, when loading failed).
var placeholderPix = []byte{0x00, 0xFF, 0xFF, 0x00}

// Manager is an asynchronous texture cache with idle eviction.
//
// One goroutine owns the Manager: it calls Acquire, Use, Tick and all
// other methods, and it is the only goroutine that touches the gpu.Device.
// Worker goroutines run open/decode jobs and hand their results back
// through an internal completion queue, drained by Tick (or Drain).
//
// The key map only grows; evicting a texture resets its residency but
// keeps the cache entry, so a later Acquire of the same key returns the
// same handle and transparently reloads it.
type Manager struct {
	mu  sync.Mutex
	dev gpu.Device

	completion *async.Completion
	exec       async.Executor
	ownPool    *async.Pool

	registry *decoder.Registry
	source   decoder.Source

	sweepTimeout uint64
	sweepBudget  int

	placeholder     gpu.TextureID
	placeholderW    int
	placeholderH    int
	placeholderForm gpu.PixelFormat

	textures map[string]*Texture

	// active holds exactly the resident managed textures, in no
	// particular order. Removal swaps with the last element, which is
	// why the sweep cursor walks backward and is persisted across
	// ticks instead of assuming a stable index.
	active      []*Texture
	sweepCursor int

	currentFrame uint64
	closed       bool
}

// NewManager creates a Manager on the given device.
//
// The placeholder texture is created eagerly, so NewManager must run on
// the goroutine owning the GPU context.
func NewManager(dev gpu.Device, cfg Config) (*Manager, error) {
	if dev == nil {
		return nil, fmt.Errorf("texload: nil device")
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		dev:             dev,
		completion:      async.NewCompletion(Logger),
		registry:        cfg.Registry,
		source:          cfg.Source,
		sweepTimeout:    uint64(cfg.SweepTimeout),
		sweepBudget:     cfg.SweepBudget,
		placeholderW:    2,
		placeholderH:    2,
		placeholderForm: gpu.FormatGray8,
		textures:        make(map[string]*Texture),
	}

	if cfg.Executor != nil {
		m.exec = cfg.Executor
	} else {
		m.ownPool = async.NewPool(cfg.Workers)
		m.exec = m.ownPool
	}

	id, err := dev.CreateTexture(m.placeholderW, m.placeholderH, m.placeholderForm)
	if err != nil {
		if m.ownPool != nil {
			m.ownPool.Close()
		}
		return nil, fmt.Errorf("texload: create placeholder texture: %w", err)
	}
	dev.UploadTexture(id, 0, 0, m.placeholderW, m.placeholderH, m.placeholderForm, placeholderPix)
	m.placeholder = id

	return m, nil
}

// Acquire returns the managed texture for key, creating an unloaded entry
// on first request. Repeated calls with the same key return the same
// handle. The texture is not loaded until it is first used.
//
// Acquire panics if the Manager is closed.
func (m *Manager) Acquire(key string) *Texture {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		panic("texload: Acquire on closed manager")
	}

	t := m.textures[key]
	if t == nil {
		t = &Texture{m: m, key: key, managed: true}
		m.textures[key] = t
	}
	return t
}

// Drain runs all completion callbacks queued by finished worker jobs.
// Must be called from the owning goroutine. Tick calls Drain first, so
// explicit calls are only needed between frames.
func (m *Manager) Drain() {
	m.completion.Drain()
}

// Tick advances the cache by one frame: it drains the completion queue,
// increments the frame counter and runs a bounded eviction sweep over the
// active textures. Call it exactly once per rendering frame from the
// owning goroutine. Tick never fails and never blocks on load work.
func (m *Manager) Tick() {
	m.Drain()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	m.currentFrame++
	m.sweep()
}

// Frame returns the current frame counter.
func (m *Manager) Frame() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentFrame
}

// sweep examines up to sweepBudget active textures, resuming at the
// persisted cursor, and evicts those idle longer than sweepTimeout.
// Caller must hold m.mu.
func (m *Manager) sweep() {
	idx := m.sweepCursor
	if idx <= 0 {
		idx = len(m.active)
	}

	for i := 0; i < m.sweepBudget && idx > 0; i++ {
		idx--
		t := m.active[idx]
		if t.state != stateResident || t.id == gpu.InvalidID || t.id == m.placeholder {
			panic("texload: invalid texture in active registry")
		}
		if m.currentFrame-t.lastUsedFrame > m.sweepTimeout {
			m.evict(idx, t)
		}
	}
	m.sweepCursor = idx
}

// evict releases a resident texture's GPU handle, reverts it to unloaded
// and removes it from the active registry via swap-with-last.
// Caller must hold m.mu.
func (m *Manager) evict(idx int, t *Texture) {
	Logger().Info("unloading idle texture", "key", t.key)

	m.dev.DeleteTexture(t.id)
	t.id = gpu.InvalidID
	t.width, t.height = 0, 0
	t.format = gpu.FormatInvalid
	t.state = stateUnloaded

	end := len(m.active) - 1
	last := m.active[end]
	m.active = m.active[:end]
	if idx < end {
		m.active[idx] = last
	}
}

// startLoad begins the load pipeline for an unloaded texture: the
// placeholder is substituted immediately, then an open job is submitted.
// Caller must hold m.mu.
func (m *Manager) startLoad(t *Texture) {
	t.id = m.placeholder
	t.width, t.height = m.placeholderW, m.placeholderH

	factory, ok := m.registry.Lookup(t.key)
	if !ok {
		// No retry: the key cannot gain a decoder by itself, so the
		// texture keeps its placeholder permanently.
		t.failed = true
		Logger().Error("no decoder registered for texture", "key", t.key)
		return
	}

	Logger().Info("loading texture", "key", t.key)
	t.state = stateOpening
	job := &openJob{m: m, t: t, factory: factory}
	async.Run(m.completion, m.exec, job.run, job)
}

// ActiveCount returns the number of resident managed textures.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Close releases the placeholder and all resident textures and shuts down
// the worker pool owned by the Manager. In-flight jobs still complete on
// their workers; their completion callbacks detect the closed manager and
// release their staging resources without touching any texture.
//
// Close is idempotent. The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true

	for _, t := range m.active {
		m.dev.DeleteTexture(t.id)
		t.id = gpu.InvalidID
		t.state = stateUnloaded
	}
	m.active = nil

	if m.placeholder != gpu.InvalidID {
		m.dev.DeleteTexture(m.placeholder)
		m.placeholder = gpu.InvalidID
	}
	pool := m.ownPool
	m.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	// Run remaining completion callbacks so in-flight jobs can release
	// their decoders and staging buffers.
	m.completion.Drain()
}

// NewUnmanaged creates a texture outside the cache and uploads pix
// synchronously on the calling goroutine. The result never enters the
// eviction sweep; the caller releases it with Texture.Destroy.
func (m *Manager) NewUnmanaged(width, height int, format gpu.PixelFormat, pix []byte) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if len(pix) != format.ImageBytes(width, height) {
		return nil, fmt.Errorf("%w: got %d bytes, want %d",
			ErrBadPixelData, len(pix), format.ImageBytes(width, height))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	id, err := m.dev.CreateTexture(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("texload: create texture: %w", err)
	}
	m.dev.UploadTexture(id, 0, 0, width, height, format, pix)
	if m.dev.Caps().Mipmaps {
		m.dev.GenerateMipmaps(id)
	}

	return &Texture{
		m:      m,
		id:     id,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// LoadSync opens, decodes and uploads key synchronously on the calling
// goroutine, bypassing the async pipeline. The result is an unmanaged
// texture. Use it for load screens or tooling where blocking is fine.
func (m *Manager) LoadSync(key string) (*Texture, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	registry, source := m.registry, m.source
	m.mu.Unlock()

	factory, ok := registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", decoder.ErrNoDecoder, key)
	}

	r, err := source(key)
	if err != nil {
		return nil, fmt.Errorf("texload: open %q: %w", key, err)
	}
	dec := factory.New(key, r)
	defer func() { _ = dec.Close() }()

	if err := dec.Open(); err != nil {
		return nil, fmt.Errorf("texload: open %q: %w", key, err)
	}

	width, height, format := dec.Width(), dec.Height(), dec.Format()
	buf, err := staging.New(m.dev, format.ImageBytes(width, height))
	if err != nil {
		return nil, err
	}
	defer func() { _ = buf.Dispose() }()

	region, err := buf.Map()
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(region); err != nil {
		return nil, fmt.Errorf("texload: decode %q: %w", key, err)
	}
	if err := buf.Unmap(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	id, err := m.dev.CreateTexture(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("texload: create texture: %w", err)
	}
	m.uploadStaged(id, 0, 0, width, height, format, buf)
	if m.dev.Caps().Mipmaps {
		m.dev.GenerateMipmaps(id)
	}

	return &Texture{
		m:      m,
		id:     id,
		width:  width,
		height: height,
		format: format,
	}, nil
}

// uploadStaged uploads the contents of an unmapped staging buffer into a
// texture region, choosing the buffer-to-texture path when the staging
// memory lives on the device. Caller must hold m.mu.
func (m *Manager) uploadStaged(id gpu.TextureID, x, y, width, height int, format gpu.PixelFormat, buf staging.Buffer) {
	src, err := buf.UploadSource()
	if err != nil {
		// Only reachable for a disposed buffer, which is a pipeline
		// bug, not a runtime condition.
		panic(fmt.Sprintf("texload: staged upload: %v", err))
	}
	if src.Buffer != gpu.InvalidID {
		m.dev.UploadTextureFromBuffer(id, x, y, width, height, format, src.Buffer)
	} else {
		m.dev.UploadTexture(id, x, y, width, height, format, src.Bytes)
	}
}
